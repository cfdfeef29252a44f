package resumes

import "context"

// Repo defines persistence operations for resume records.
type Repo interface {
	Create(ctx context.Context, resume Resume) error
	GetByID(ctx context.Context, id string) (Resume, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Resume, error)
	Delete(ctx context.Context, id string) error
}
