package editor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"club-site/internal/blob"
	"club-site/internal/content"
	"club-site/internal/event"
	"club-site/internal/media"

	"golang.org/x/sync/errgroup"
)

const (
	galleriesNamespace = "galleries"
	thumbnailPrefix    = "thumb_"
)

type GalleryEditor struct {
	base
	docs       Documents[content.Gallery]
	thumbWidth int
}

// NewGalleryEditor uses media.GalleryThumbnailWidth when thumbWidth is not
// positive.
func NewGalleryEditor(docs Documents[content.Gallery], blobs blob.Store, events Notifier, thumbWidth int, logger *log.Logger) *GalleryEditor {
	if thumbWidth <= 0 {
		thumbWidth = media.GalleryThumbnailWidth
	}
	return &GalleryEditor{
		base:       newBase(content.GalleriesCollection.Name, blobs, events, logger),
		docs:       docs,
		thumbWidth: thumbWidth,
	}
}

// Create uploads every file with its thumbnail, all concurrently, and
// writes the gallery once the whole batch succeeded. A failed upload does
// not cancel its siblings, and uploads that did succeed are left in place.
func (e *GalleryEditor) Create(ctx context.Context, title string, files []Upload) (*content.Gallery, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(files) == 0 {
		return nil, invalid(GalleryRequiredMessage)
	}
	for i := range files {
		if !files[i].present() {
			return nil, invalid(GalleryRequiredMessage)
		}
		if !files[i].isImage() {
			return nil, invalid(InvalidImageMessage)
		}
	}

	slug := media.Slugify(title)
	folder := galleriesNamespace + "/" + e.stamp() + "-" + slug
	images := make([]content.GalleryImage, len(files))

	var g errgroup.Group
	for i := range files {
		i := i
		f := &files[i]
		name := blob.CleanName(f.Filename)

		g.Go(func() error {
			url, err := e.upload(ctx, blob.Path(folder, name), f)
			if err != nil {
				return err
			}
			images[i].Original = url
			return nil
		})

		g.Go(func() error {
			thumb, err := media.Thumbnail(f.Data, e.thumbWidth)
			if err != nil {
				return fmt.Errorf("thumbnail %s: %w", name, err)
			}
			url, err := e.upload(ctx, blob.Path(folder, thumbnailPrefix+name), &Upload{
				Filename:    thumbnailPrefix + name,
				ContentType: media.ThumbnailContentType,
				Data:        thumb,
			})
			if err != nil {
				return err
			}
			images[i].Thumbnail = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.saveFailed(err)
	}

	doc := &content.Gallery{
		Title:  title,
		Slug:   slug,
		Images: images,
	}
	id, err := e.docs.Insert(ctx, doc)
	if err != nil {
		return nil, e.saveFailed(err)
	}
	doc.ID = id

	e.logger.Printf("editor: created gallery %s (%s) with %d image(s)", id, slug, len(images))
	e.notify(ctx, event.ActionCreated, id, slug)
	return doc, nil
}

// Delete removes every original and thumbnail, then the gallery.
func (e *GalleryEditor) Delete(ctx context.Context, id string) error {
	return cascadeDelete(ctx, &e.base, e.docs, id, func(g content.Gallery) ([]string, string) {
		return g.BlobURLs(), g.Slug
	})
}
