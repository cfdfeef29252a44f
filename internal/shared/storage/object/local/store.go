package local

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencodeiiita/careercraft-backend/internal/shared/storage/object"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/util"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
	baseURL string
}

// New creates a local object store rooted at baseDir. Stored objects are
// addressed under baseURL/files/<key>.
func New(baseDir, baseURL string) object.ObjectStore {
	return &Store{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Store writes the reader to disk under the owner's namespace with a random prefix.
func (s *Store) Store(ctx context.Context, ownerID, fileName, mimeType string, r io.Reader) (object.StoredObject, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return object.StoredObject{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return object.StoredObject{}, err
	}

	ownerKey := util.HashUserKey(ownerID)
	finalName := fmt.Sprintf("%s_%s", randomID(), sanitizedName)
	storageKey := path.Join(ownerKey, finalName)

	dir := filepath.Join(s.baseDir, ownerKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return object.StoredObject{}, fmt.Errorf("create store dir: %w", err)
	}

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return object.StoredObject{}, fmt.Errorf("read sniff: %w", readErr)
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(sniff[:n])
	}

	dest := filepath.Join(dir, finalName)
	f, err := os.Create(dest)
	if err != nil {
		return object.StoredObject{}, fmt.Errorf("create file: %w", err)
	}
	written, err := io.Copy(f, io.MultiReader(strings.NewReader(string(sniff[:n])), r))
	closeErr := f.Close()
	if err != nil {
		os.Remove(dest)
		return object.StoredObject{}, fmt.Errorf("write file: %w", err)
	}
	if closeErr != nil {
		os.Remove(dest)
		return object.StoredObject{}, fmt.Errorf("close file: %w", closeErr)
	}

	return object.StoredObject{
		URL:         s.baseURL + "/files/" + storageKey,
		DeletableID: storageKey,
		MimeType:    mimeType,
		SizeBytes:   written,
	}, nil
}

// Delete removes a stored object from disk. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, deletableID, resourceHint string) error {
	_ = resourceHint
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.resolve(deletableID)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object key=%s: %w", deletableID, err)
	}
	return nil
}

// Open reads back a stored object.
func (s *Store) Open(ctx context.Context, deletableID string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.resolve(deletableID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open object key=%s: %w", deletableID, err)
	}
	return f, nil
}

func (s *Store) resolve(storageKey string) (string, error) {
	if strings.Contains(storageKey, "..") {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(storageKey)), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

var _ object.ObjectStore = (*Store)(nil)
