package content

import (
	"time"

	"club-site/internal/docstore"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var (
	NewsCollection = docstore.Spec{
		Name:       "news",
		OrderBy:    docstore.CreatedAtField,
		Descending: true,
		Indexes:    []string{"slug"},
	}
	GalleriesCollection = docstore.Spec{
		Name:       "galleries",
		OrderBy:    docstore.CreatedAtField,
		Descending: true,
		Indexes:    []string{"slug"},
	}
	PlayersCollection = docstore.Spec{
		Name:    "players",
		OrderBy: "name",
	}
	SponsorsCollection = docstore.Spec{
		Name:       "sponsors",
		OrderBy:    docstore.CreatedAtField,
		Descending: true,
	}
)

type News struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Slug      string    `bson:"slug" json:"slug"`
	Category  string    `bson:"category" json:"category"`
	Excerpt   string    `bson:"excerpt" json:"excerpt"`
	Content   string    `bson:"content" json:"content"`
	Image     string    `bson:"image" json:"image"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt"`
}

func (n News) BlobURLs() []string {
	return nonEmpty(n.Image)
}

type Gallery struct {
	ID        string         `bson:"_id,omitempty" json:"id"`
	Title     string         `bson:"title" json:"title"`
	Slug      string         `bson:"slug" json:"slug"`
	Images    []GalleryImage `bson:"images" json:"images"`
	CreatedAt time.Time      `bson:"createdAt,omitempty" json:"createdAt"`
}

// BlobURLs lists every original and thumbnail, originals first per image.
func (g Gallery) BlobURLs() []string {
	urls := make([]string, 0, len(g.Images)*2)
	for _, img := range g.Images {
		urls = append(urls, nonEmpty(img.Original, img.Thumbnail)...)
	}
	return urls
}

type GalleryImage struct {
	Original  string `bson:"original" json:"original"`
	Thumbnail string `bson:"thumbnail" json:"thumbnail"`
}

// Display is the URL shown in grids; older galleries have no thumbnail.
func (i GalleryImage) Display() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}
	return i.Original
}

type galleryImage GalleryImage

// UnmarshalBSONValue accepts both the {original, thumbnail} document and
// the bare URL string early galleries were stored with.
func (i *GalleryImage) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	if s, ok := raw.StringValueOK(); ok {
		*i = GalleryImage{Original: s}
		return nil
	}

	var img galleryImage
	if err := raw.Unmarshal(&img); err != nil {
		return err
	}
	*i = GalleryImage(img)
	return nil
}

type Player struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Position  string    `bson:"position" json:"position"`
	ImageURL  string    `bson:"imageUrl" json:"imageUrl"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt"`
}

func (p Player) BlobURLs() []string {
	return nonEmpty(p.ImageURL)
}

type Sponsor struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	LogoURL   string    `bson:"logoUrl" json:"logoUrl"`
	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt"`
}

func (s Sponsor) BlobURLs() []string {
	return nonEmpty(s.LogoURL)
}

func nonEmpty(urls ...string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
