// Package assets stores the binary files a specimen references (photos and
// scan-code images) in object storage. Callers get back a public URL and an
// opaque handle; the handle is the only thing needed to destroy the object.
package assets

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Destroy when the handle names no object and the
// backend can tell.
var ErrNotFound = errors.New("asset not found")

// Asset is a stored object.
type Asset struct {
	URL    string
	Handle string
}

// PutOptions controls where an upload lands. An empty PublicID gets a random one.
type PutOptions struct {
	Folder      string
	PublicID    string
	ContentType string
}

// Store is the object storage contract used by the specimen lifecycle.
type Store interface {
	Put(ctx context.Context, r io.Reader, opts PutOptions) (Asset, error)
	Destroy(ctx context.Context, handle string) error
}

// objectKey builds the storage key for an upload.
func objectKey(opts PutOptions) string {
	id := strings.Trim(opts.PublicID, "/")
	if id == "" {
		id = uuid.NewString()
	}
	folder := strings.Trim(opts.Folder, "/")
	if folder == "" {
		return id
	}
	return path.Join(folder, id)
}

// joinURL appends an object key to a base URL.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
