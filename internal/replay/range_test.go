package replay

import (
	"reflect"
	"testing"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(0, 5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []SeqRange{
		{From: 0, To: 1},
		{From: 2, To: 3},
		{From: 4, To: 5},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitRangeUneven(t *testing.T) {
	got, err := SplitRange(3, 9, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []SeqRange{{From: 3, To: 6}, {From: 7, To: 9}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
}

func TestSplitRangeInvalid(t *testing.T) {
	if _, err := SplitRange(10, 9, 1); err == nil {
		t.Fatalf("expected error for invalid range")
	}
	if _, err := SplitRange(1, 10, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}
