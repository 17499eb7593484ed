// Package editor orchestrates the mutations of the content collections:
// blob uploads and deletes paired with document writes. It does not check
// who is calling; the HTTP layer puts mutation routes behind the session
// gate.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"club-site/internal/blob"
	"club-site/internal/event"
)

// Upload is one file received from a form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u *Upload) present() bool {
	return u != nil && len(u.Data) > 0
}

func (u *Upload) isImage() bool {
	return strings.HasPrefix(u.ContentType, "image/")
}

// Documents is the slice of a document collection the editors write to.
type Documents[T any] interface {
	Insert(ctx context.Context, doc *T) (string, error)
	Get(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

type Notifier interface {
	Notify(ctx context.Context, c event.Change)
}

// base holds what every collection editor shares.
type base struct {
	collection string
	blobs      blob.Store
	events     Notifier
	logger     *log.Logger
	now        func() time.Time
}

func newBase(collection string, blobs blob.Store, events Notifier, logger *log.Logger) base {
	if logger == nil {
		logger = log.Default()
	}
	return base{
		collection: collection,
		blobs:      blobs,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// stamp is the uniqueness token prefixed to uploaded file names.
func (b *base) stamp() string {
	return fmt.Sprintf("%d", b.now().UnixMilli())
}

func (b *base) upload(ctx context.Context, objectPath string, u *Upload) (string, error) {
	url, err := b.blobs.Put(ctx, objectPath, u.ContentType, u.Data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return url, nil
}

func (b *base) saveFailed(err error) error {
	b.logger.Printf("editor: %s save failed: %v", b.collection, err)
	return &SaveError{Collection: b.collection, Err: err}
}

// dropBlob deletes one blob, tolerating its absence. Other failures are
// logged and otherwise ignored.
func (b *base) dropBlob(ctx context.Context, url string) {
	err := b.blobs.Delete(ctx, url)
	switch {
	case err == nil:
	case errors.Is(err, blob.ErrNotFound):
		b.logger.Printf("editor: %s blob already gone: %s", b.collection, url)
	default:
		b.logger.Printf("editor: %s failed to delete blob %s: %v", b.collection, url, err)
	}
}

func (b *base) notify(ctx context.Context, action, id, slug string) {
	if b.events == nil {
		return
	}
	b.events.Notify(ctx, event.Change{
		Collection: b.collection,
		Action:     action,
		ID:         id,
		Slug:       slug,
	})
}

// cascadeDelete removes every blob the document references, then the
// document itself. Blob failures never stop the document delete.
func cascadeDelete[T any](ctx context.Context, b *base, docs Documents[T], id string, refs func(T) ([]string, string)) error {
	doc, err := docs.Get(ctx, id)
	if err != nil {
		b.logger.Printf("editor: %s/%s delete lookup failed: %v", b.collection, id, err)
		return &DeleteError{Collection: b.collection, ID: id, Err: err}
	}

	urls, slug := refs(*doc)
	for _, url := range urls {
		b.dropBlob(ctx, url)
	}

	if err := docs.Delete(ctx, id); err != nil {
		b.logger.Printf("editor: %s/%s delete failed: %v", b.collection, id, err)
		return &DeleteError{Collection: b.collection, ID: id, Err: err}
	}

	b.logger.Printf("editor: deleted %s/%s with %d blob(s)", b.collection, id, len(urls))
	b.notify(ctx, event.ActionDeleted, id, slug)
	return nil
}
