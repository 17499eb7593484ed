package editor

import (
	"context"
	"log"
	"strings"

	"club-site/internal/blob"
	"club-site/internal/content"
	"club-site/internal/event"
	"club-site/internal/media"
)

const newsImagesNamespace = "news-images"

type NewsInput struct {
	Title    string
	Category string
	Excerpt  string
	Content  string
}

type NewsEditor struct {
	base
	docs Documents[content.News]
}

func NewNewsEditor(docs Documents[content.News], blobs blob.Store, events Notifier, logger *log.Logger) *NewsEditor {
	return &NewsEditor{
		base: newBase(content.NewsCollection.Name, blobs, events, logger),
		docs: docs,
	}
}

// Create uploads the cover image and writes the article.
func (e *NewsEditor) Create(ctx context.Context, in NewsInput, image *Upload) (*content.News, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Excerpt = strings.TrimSpace(in.Excerpt)

	if in.Title == "" || in.Category == "" || in.Excerpt == "" || strings.TrimSpace(in.Content) == "" || !image.present() {
		return nil, invalid(NewsRequiredMessage)
	}
	if !image.isImage() {
		return nil, invalid(InvalidImageMessage)
	}

	objectPath := blob.Path(newsImagesNamespace, e.stamp()+"-"+blob.CleanName(image.Filename))
	url, err := e.upload(ctx, objectPath, image)
	if err != nil {
		return nil, e.saveFailed(err)
	}

	doc := &content.News{
		Title:    in.Title,
		Slug:     media.Slugify(in.Title),
		Category: in.Category,
		Excerpt:  in.Excerpt,
		Content:  in.Content,
		Image:    url,
	}
	id, err := e.docs.Insert(ctx, doc)
	if err != nil {
		return nil, e.saveFailed(err)
	}
	doc.ID = id

	e.logger.Printf("editor: created news %s (%s)", id, doc.Slug)
	e.notify(ctx, event.ActionCreated, id, doc.Slug)
	return doc, nil
}

func (e *NewsEditor) Delete(ctx context.Context, id string) error {
	return cascadeDelete(ctx, &e.base, e.docs, id, func(n content.News) ([]string, string) {
		return n.BlobURLs(), n.Slug
	})
}
