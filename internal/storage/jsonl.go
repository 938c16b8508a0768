package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"clmmEngine/internal/model"
)

// JsonlStorage writes operation records to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

func (s *JsonlStorage) Path() string { return s.path }

// PutRecordBatch appends a batch of records as JSON lines.
func (s *JsonlStorage) PutRecordBatch(records []model.OperationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AppendJSONL(s.path, records)
}

// AppendJSONL appends items to path as JSON lines, creating the file and its
// directory when missing.
func AppendJSONL[T any](path string, items []T) error {
	if len(items) == 0 {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// ScanJSONL decodes every non-empty line of path into T and hands it to fn.
// Lines that fail to decode are passed to onErr and skipped; a nil onErr
// aborts the scan instead.
func ScanJSONL[T any](path string, fn func(T) error, onErr func(line int, err error)) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			if onErr == nil {
				return fmt.Errorf("line %d: %w", n, err)
			}
			onErr(n, err)
			continue
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}
	return nil
}
