package storage

import (
	"context"

	"txnarrator/internal/model"
)

// Storage defines a sink for rendered descriptions.
type Storage interface {
	PutDescriptions(ctx context.Context, descriptions []model.Description) error
}
