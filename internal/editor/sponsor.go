package editor

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"club-site/internal/blob"
	"club-site/internal/content"
	"club-site/internal/event"

	"golang.org/x/sync/errgroup"
)

const sponsorsNamespace = "sponsors"

type SponsorEditor struct {
	base
	docs Documents[content.Sponsor]
}

func NewSponsorEditor(docs Documents[content.Sponsor], blobs blob.Store, events Notifier, logger *log.Logger) *SponsorEditor {
	return &SponsorEditor{
		base: newBase(content.SponsorsCollection.Name, blobs, events, logger),
		docs: docs,
	}
}

// Create adds one sponsor. An empty name falls back to the logo's file
// name without extension.
func (e *SponsorEditor) Create(ctx context.Context, name string, logo *Upload) (*content.Sponsor, error) {
	if !logo.present() {
		return nil, invalid(SponsorRequiredMessage)
	}
	if !logo.isImage() {
		return nil, invalid(InvalidImageMessage)
	}

	created, err := e.create(ctx, []string{name}, []Upload{*logo})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// CreateMany adds one sponsor per logo. Files that are not images are
// skipped; the batch fails validation only when nothing is left.
func (e *SponsorEditor) CreateMany(ctx context.Context, logos []Upload) ([]content.Sponsor, error) {
	accepted := make([]Upload, 0, len(logos))
	for _, l := range logos {
		if l.present() && l.isImage() {
			accepted = append(accepted, l)
			continue
		}
		e.logger.Printf("editor: sponsors skipping non-image upload %q (%s)", l.Filename, l.ContentType)
	}
	if len(accepted) == 0 {
		return nil, invalid(SponsorRequiredMessage)
	}

	return e.create(ctx, make([]string, len(accepted)), accepted)
}

// create uploads every logo concurrently, then writes the documents in
// upload order. Batch paths carry the logo's position so equal file names
// never share a blob.
func (e *SponsorEditor) create(ctx context.Context, names []string, logos []Upload) ([]content.Sponsor, error) {
	stamp := e.stamp()
	urls := make([]string, len(logos))

	var g errgroup.Group
	for i := range logos {
		i := i
		l := &logos[i]
		g.Go(func() error {
			name := stamp + "-" + blob.CleanName(l.Filename)
			if len(logos) > 1 {
				name = fmt.Sprintf("%s-%d-%s", stamp, i, blob.CleanName(l.Filename))
			}
			url, err := e.upload(ctx, blob.Path(sponsorsNamespace, name), l)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.saveFailed(err)
	}

	out := make([]content.Sponsor, 0, len(logos))
	for i := range logos {
		doc := &content.Sponsor{
			Name:    sponsorName(names[i], logos[i].Filename),
			LogoURL: urls[i],
		}
		id, err := e.docs.Insert(ctx, doc)
		if err != nil {
			return nil, e.saveFailed(err)
		}
		doc.ID = id
		out = append(out, *doc)

		e.logger.Printf("editor: created sponsor %s (%s)", id, doc.Name)
		e.notify(ctx, event.ActionCreated, id, "")
	}
	return out, nil
}

func (e *SponsorEditor) Delete(ctx context.Context, id string) error {
	return cascadeDelete(ctx, &e.base, e.docs, id, func(s content.Sponsor) ([]string, string) {
		return s.BlobURLs(), ""
	})
}

func sponsorName(name, filename string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	file := blob.CleanName(filename)
	return strings.TrimSuffix(file, path.Ext(file))
}
