package blob

import (
	"context"
	"errors"
	"path"
	"strings"
)

var ErrNotFound = errors.New("blob: object not found")

// Store is path-addressed object storage returning durable download URLs.
type Store interface {
	// Put uploads data under objectPath and returns its public URL.
	Put(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
	// Delete removes the object behind a URL previously returned by Put.
	// A missing object yields ErrNotFound.
	Delete(ctx context.Context, url string) error
}

// Path joins a namespace and a client supplied file name, dropping any
// directory components the name carries.
func Path(namespace, filename string) string {
	return namespace + "/" + CleanName(filename)
}

func CleanName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	return name
}
