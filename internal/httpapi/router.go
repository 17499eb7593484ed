package httpapi

import (
	"context"
	"log"
	"net/http"

	"club-site/internal/auth"
	"club-site/internal/contact"
	"club-site/internal/content"
	"club-site/internal/editor"
	"club-site/internal/livesync"

	"github.com/gorilla/mux"
)

type NewsEditor interface {
	Create(ctx context.Context, in editor.NewsInput, image *editor.Upload) (*content.News, error)
	Delete(ctx context.Context, id string) error
}

type GalleryEditor interface {
	Create(ctx context.Context, title string, files []editor.Upload) (*content.Gallery, error)
	Delete(ctx context.Context, id string) error
}

type PlayerEditor interface {
	Create(ctx context.Context, in editor.PlayerInput, image *editor.Upload) (*content.Player, error)
	Update(ctx context.Context, id string, in editor.PlayerInput, image *editor.Upload) (*content.Player, error)
	Delete(ctx context.Context, id string) error
}

type SponsorEditor interface {
	Create(ctx context.Context, name string, logo *editor.Upload) (*content.Sponsor, error)
	CreateMany(ctx context.Context, logos []editor.Upload) ([]content.Sponsor, error)
	Delete(ctx context.Context, id string) error
}

// Feed is a live collection snapshot.
type Feed[T any] interface {
	Current() []T
	Subscribe() *livesync.Subscription[T]
}

// Finder looks a document up by one field, e.g. the slug of a detail page.
type Finder[T any] interface {
	FindBy(ctx context.Context, field string, value any) (*T, error)
}

type Deps struct {
	Auth    *auth.Service
	Contact *contact.Service

	News      NewsEditor
	Galleries GalleryEditor
	Players   PlayerEditor
	Sponsors  SponsorEditor

	NewsFeed      Feed[content.News]
	GalleriesFeed Feed[content.Gallery]
	PlayersFeed   Feed[content.Player]
	SponsorsFeed  Feed[content.Sponsor]

	NewsBySlug      Finder[content.News]
	GalleriesBySlug Finder[content.Gallery]

	MainSponsors   content.MainSponsors
	MaxUploadBytes int64
	Logger         *log.Logger
}

type api struct {
	Deps
}

// NewRouter mounts the JSON API. Every request carries its auth.Session;
// mutation routes additionally require the gate to be open.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 32 << 20
	}
	a := &api{Deps: d}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(d.Auth.Middleware)

	guarded := func(h http.HandlerFunc) http.Handler {
		return auth.RequireSession(h)
	}

	apiRouter.HandleFunc("/session", a.getSession).Methods(http.MethodGet)
	apiRouter.HandleFunc("/session", a.login).Methods(http.MethodPost)
	apiRouter.HandleFunc("/session", a.logout).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/news", a.listNews).Methods(http.MethodGet)
	apiRouter.HandleFunc("/news/{slug}", a.getNews).Methods(http.MethodGet)
	apiRouter.Handle("/news", guarded(a.createNews)).Methods(http.MethodPost)
	apiRouter.Handle("/news/{id}", guarded(a.deleteNews)).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/galleries", a.listGalleries).Methods(http.MethodGet)
	apiRouter.HandleFunc("/galleries/{slug}", a.getGallery).Methods(http.MethodGet)
	apiRouter.Handle("/galleries", guarded(a.createGallery)).Methods(http.MethodPost)
	apiRouter.Handle("/galleries/{id}", guarded(a.deleteGallery)).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/players", a.listPlayers).Methods(http.MethodGet)
	apiRouter.Handle("/players", guarded(a.createPlayer)).Methods(http.MethodPost)
	apiRouter.Handle("/players/{id}", guarded(a.updatePlayer)).Methods(http.MethodPut)
	apiRouter.Handle("/players/{id}", guarded(a.deletePlayer)).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/sponsors", a.listSponsors).Methods(http.MethodGet)
	apiRouter.Handle("/sponsors", guarded(a.createSponsors)).Methods(http.MethodPost)
	apiRouter.Handle("/sponsors/{id}", guarded(a.deleteSponsor)).Methods(http.MethodDelete)

	apiRouter.HandleFunc("/live/{collection}", a.live).Methods(http.MethodGet)

	apiRouter.HandleFunc("/contact", a.submitContact).Methods(http.MethodPost)

	return r
}
