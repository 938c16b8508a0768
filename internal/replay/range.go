package replay

import "fmt"

// SeqRange represents an inclusive range of operation indexes.
type SeqRange struct {
	From uint64
	To   uint64
}

// SplitRange splits an index range into batches of size batchSize.
func SplitRange(from, to, batchSize uint64) ([]SeqRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("range end must be >= range start")
	}

	ranges := make([]SeqRange, 0, (to-from)/batchSize+1)
	start := from
	for start <= to {
		end := to
		if to-start+1 > batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, SeqRange{From: start, To: end})
		if end == to {
			break
		}
		start = end + 1
	}

	return ranges, nil
}
