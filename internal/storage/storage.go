package storage

import "clmmEngine/internal/model"

// Storage defines a sink for operation records.
type Storage interface {
	PutRecordBatch(records []model.OperationRecord) error
}
