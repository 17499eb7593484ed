package editor

import (
	"context"
	"log"
	"strings"

	"club-site/internal/blob"
	"club-site/internal/content"
	"club-site/internal/event"
)

const playerImagesNamespace = "player-images"

type PlayerInput struct {
	Name     string
	Position string
}

func (in *PlayerInput) normalize() bool {
	in.Name = strings.TrimSpace(in.Name)
	in.Position = strings.TrimSpace(in.Position)
	return in.Name != "" && in.Position != ""
}

type PlayerEditor struct {
	base
	docs Documents[content.Player]
}

func NewPlayerEditor(docs Documents[content.Player], blobs blob.Store, events Notifier, logger *log.Logger) *PlayerEditor {
	return &PlayerEditor{
		base: newBase(content.PlayersCollection.Name, blobs, events, logger),
		docs: docs,
	}
}

func (e *PlayerEditor) Create(ctx context.Context, in PlayerInput, image *Upload) (*content.Player, error) {
	if !in.normalize() {
		return nil, invalid(PlayerFieldsMessage)
	}
	if !image.present() {
		return nil, invalid(PlayerImageMessage)
	}
	if !image.isImage() {
		return nil, invalid(InvalidImageMessage)
	}

	url, err := e.upload(ctx, e.imagePath(image), image)
	if err != nil {
		return nil, e.saveFailed(err)
	}

	doc := &content.Player{
		Name:     in.Name,
		Position: in.Position,
		ImageURL: url,
	}
	id, err := e.docs.Insert(ctx, doc)
	if err != nil {
		return nil, e.saveFailed(err)
	}
	doc.ID = id

	e.logger.Printf("editor: created player %s (%s)", id, doc.Name)
	e.notify(ctx, event.ActionCreated, id, "")
	return doc, nil
}

// Update rewrites name and position and, when image is given, replaces the
// picture: the old blob is deleted before the new one is uploaded.
func (e *PlayerEditor) Update(ctx context.Context, id string, in PlayerInput, image *Upload) (*content.Player, error) {
	if !in.normalize() {
		return nil, invalid(PlayerFieldsMessage)
	}
	if image.present() && !image.isImage() {
		return nil, invalid(InvalidImageMessage)
	}

	current, err := e.docs.Get(ctx, id)
	if err != nil {
		return nil, e.saveFailed(err)
	}

	imageURL := current.ImageURL
	if image.present() {
		if current.ImageURL != "" {
			e.dropBlob(ctx, current.ImageURL)
		}
		imageURL, err = e.upload(ctx, e.imagePath(image), image)
		if err != nil {
			return nil, e.saveFailed(err)
		}
	}

	fields := map[string]any{
		"name":     in.Name,
		"position": in.Position,
		"imageUrl": imageURL,
	}
	if err := e.docs.Update(ctx, id, fields); err != nil {
		return nil, e.saveFailed(err)
	}

	updated := *current
	updated.Name = in.Name
	updated.Position = in.Position
	updated.ImageURL = imageURL

	e.logger.Printf("editor: updated player %s", id)
	e.notify(ctx, event.ActionUpdated, id, "")
	return &updated, nil
}

func (e *PlayerEditor) Delete(ctx context.Context, id string) error {
	return cascadeDelete(ctx, &e.base, e.docs, id, func(p content.Player) ([]string, string) {
		return p.BlobURLs(), ""
	})
}

func (e *PlayerEditor) imagePath(image *Upload) string {
	return blob.Path(playerImagesNamespace, e.stamp()+"-"+blob.CleanName(image.Filename))
}
