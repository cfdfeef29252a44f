package coverletters

import "context"

// Repo defines persistence operations for cover letters.
type Repo interface {
	Create(ctx context.Context, letter CoverLetter) error
	GetByID(ctx context.Context, id string) (CoverLetter, error)
	ListByOwner(ctx context.Context, ownerID string) ([]CoverLetter, error)
	Delete(ctx context.Context, id string) error
}
