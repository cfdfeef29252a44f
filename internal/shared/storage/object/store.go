package object

import (
	"context"
	"io"
)

// StoredObject describes a file persisted to external object storage.
type StoredObject struct {
	// URL is the durable, externally reachable address of the object.
	URL string
	// DeletableID is the handle accepted by Delete.
	DeletableID string
	MimeType    string
	SizeBytes   int64
}

// ObjectStore defines the contract for persisting and removing binary objects.
type ObjectStore interface {
	// Store persists the reader contents under the owner's namespace and
	// returns the durable handle. MimeType is sniffed from content when the
	// caller-provided value is empty.
	Store(ctx context.Context, ownerID, fileName, mimeType string, r io.Reader) (StoredObject, error)
	// Delete removes a stored object. resourceHint carries the provider's
	// resource-type discriminator where one applies.
	Delete(ctx context.Context, deletableID, resourceHint string) error
	// Open reads back a stored object.
	Open(ctx context.Context, deletableID string) (io.ReadCloser, error)
}
