package httpapi

import (
	"errors"
	"net/http"

	"club-site/internal/content"
	"club-site/internal/docstore"
	"club-site/internal/editor"

	"github.com/gorilla/mux"
)

const (
	NewsNotFoundMessage    = "No se ha encontrado la noticia."
	GalleryNotFoundMessage = "No se ha encontrado la galería."
)

func (a *api) listNews(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.NewsFeed.Current())
}

func (a *api) getNews(w http.ResponseWriter, r *http.Request) {
	n, err := a.NewsBySlug.FindBy(r.Context(), "slug", mux.Vars(r)["slug"])
	if errors.Is(err, docstore.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, NewsNotFoundMessage)
		return
	}
	if err != nil {
		a.Logger.Printf("http: load news %q: %v", mux.Vars(r)["slug"], err)
		writeMessage(w, http.StatusInternalServerError, "Error al cargar la noticia.")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *api) createNews(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, a.MaxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}
	image, err := upload(r, "image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}

	n, err := a.News.Create(r.Context(), editor.NewsInput{
		Title:    r.FormValue("title"),
		Category: r.FormValue("category"),
		Excerpt:  r.FormValue("excerpt"),
		Content:  r.FormValue("content"),
	}, image)
	if err != nil {
		writeError(w, a.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (a *api) deleteNews(w http.ResponseWriter, r *http.Request) {
	if err := a.News.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, a.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listGalleries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.GalleriesFeed.Current())
}

func (a *api) getGallery(w http.ResponseWriter, r *http.Request) {
	g, err := a.GalleriesBySlug.FindBy(r.Context(), "slug", mux.Vars(r)["slug"])
	if errors.Is(err, docstore.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, GalleryNotFoundMessage)
		return
	}
	if err != nil {
		a.Logger.Printf("http: load gallery %q: %v", mux.Vars(r)["slug"], err)
		writeMessage(w, http.StatusInternalServerError, "Error al cargar la galería.")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *api) createGallery(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, a.MaxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}
	files, err := uploads(r, "images")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}

	g, err := a.Galleries.Create(r.Context(), r.FormValue("title"), files)
	if err != nil {
		writeError(w, a.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (a *api) deleteGallery(w http.ResponseWriter, r *http.Request) {
	if err := a.Galleries.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, a.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.PlayersFeed.Current())
}

func (a *api) createPlayer(w http.ResponseWriter, r *http.Request) {
	a.savePlayer(w, r, "")
}

func (a *api) updatePlayer(w http.ResponseWriter, r *http.Request) {
	a.savePlayer(w, r, mux.Vars(r)["id"])
}

// savePlayer creates when id is empty and updates otherwise.
func (a *api) savePlayer(w http.ResponseWriter, r *http.Request, id string) {
	if err := parseForm(w, r, a.MaxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}
	image, err := upload(r, "image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}
	in := editor.PlayerInput{
		Name:     r.FormValue("name"),
		Position: r.FormValue("position"),
	}

	var (
		p      *content.Player
		status = http.StatusOK
	)
	if id == "" {
		p, err = a.Players.Create(r.Context(), in, image)
		status = http.StatusCreated
	} else {
		p, err = a.Players.Update(r.Context(), id, in, image)
	}
	if err != nil {
		writeError(w, a.Logger, err)
		return
	}
	writeJSON(w, status, p)
}

func (a *api) deletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := a.Players.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, a.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listSponsors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.MainSponsors.Split(a.SponsorsFeed.Current()))
}

// createSponsors adds one sponsor per file under "logos". A "name" is only
// honoured when exactly one logo is sent.
func (a *api) createSponsors(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, a.MaxUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}
	logos, err := uploads(r, "logos")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, BadFormMessage)
		return
	}

	if name := r.FormValue("name"); name != "" && len(logos) == 1 {
		s, err := a.Sponsors.Create(r.Context(), name, &logos[0])
		if err != nil {
			writeError(w, a.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, []content.Sponsor{*s})
		return
	}

	created, err := a.Sponsors.CreateMany(r.Context(), logos)
	if err != nil {
		writeError(w, a.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *api) deleteSponsor(w http.ResponseWriter, r *http.Request) {
	if err := a.Sponsors.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, a.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
