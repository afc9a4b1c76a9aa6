package ports

import (
	"context"

	"autosense/domain/core"
	"autosense/domain/dataset"
)

// DatasetStore keeps decoded frames so follow-up queries can skip re-upload
type DatasetStore interface {
	Put(ctx context.Context, frame *dataset.Frame) error
	Get(ctx context.Context, id core.DatasetHash) (*dataset.Frame, error) // core.ErrDatasetNotFound when absent
	Len() int
}
