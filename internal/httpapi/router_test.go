package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"club-site/internal/auth"
	"club-site/internal/contact"
	"club-site/internal/content"
	"club-site/internal/docstore"
	"club-site/internal/editor"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/healthz", "", nil)
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestAnonymousMutationsAreRejected(t *testing.T) {
	h := newHarness(t)
	ct, body := form(t, map[string]string{"title": "x"}, nil)

	cases := []struct{ method, path string }{
		{http.MethodPost, "/api/news"},
		{http.MethodDelete, "/api/news/n1"},
		{http.MethodPost, "/api/galleries"},
		{http.MethodDelete, "/api/galleries/g1"},
		{http.MethodPost, "/api/players"},
		{http.MethodPut, "/api/players/p1"},
		{http.MethodDelete, "/api/players/p1"},
		{http.MethodPost, "/api/sponsors"},
		{http.MethodDelete, "/api/sponsors/s1"},
	}
	for _, c := range cases {
		resp := h.do(c.method, c.path, ct, body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", c.method, c.path)
		assert.Equal(t, auth.UnauthorizedMessage, decode[errorResponse](t, resp).Error)
	}

	h.news.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	h.news.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestLoginFlipsGateAndLogoutClosesIt(t *testing.T) {
	h := newHarness(t)

	resp := h.login("wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, auth.LoginFailedMessage, decode[errorResponse](t, resp).Error)
	assert.False(t, decode[sessionResponse](t, h.do(http.MethodGet, "/api/session", "", nil)).Authenticated)

	resp = h.login(adminPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decode[sessionResponse](t, h.do(http.MethodGet, "/api/session", "", nil))
	assert.True(t, s.Authenticated)
	assert.Equal(t, adminEmail, s.Email)

	h.news.On("Delete", mock.Anything, "n1").Return(nil).Once()
	resp = h.do(http.MethodDelete, "/api/news/n1", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = h.do(http.MethodDelete, "/api/session", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = h.do(http.MethodDelete, "/api/news/n1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	h.news.AssertExpectations(t)
}

func TestLoginWithFormValues(t *testing.T) {
	h := newHarness(t)

	body := "email=" + adminEmail + "&password=" + adminPassword
	resp := h.do(http.MethodPost, "/api/session", "application/x-www-form-urlencoded", strings.NewReader(body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateNewsPassesFormAndSniffedImage(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.login(adminPassword).StatusCode)

	h.news.On("Create", mock.Anything,
		editor.NewsInput{Title: "Ascenso", Category: "Club", Excerpt: "Subimos", Content: "<p>Sí</p>"},
		mock.MatchedBy(func(u *editor.Upload) bool {
			return u.Filename == "ascenso.png" && u.ContentType == "image/png"
		}),
	).Return(&content.News{ID: "n9", Slug: "ascenso"}, nil).Once()

	ct, body := form(t,
		map[string]string{"title": "Ascenso", "category": "Club", "excerpt": "Subimos", "content": "<p>Sí</p>"},
		map[string][]string{"image": {"ascenso.png"}},
	)
	resp := h.do(http.MethodPost, "/api/news", ct, body)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "n9", decode[content.News](t, resp).ID)
	h.news.AssertExpectations(t)
}

func TestEditorErrorsMapToStatus(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.login(adminPassword).StatusCode)

	h.galleries.On("Create", mock.Anything, "", mock.Anything).
		Return(nil, &editor.ValidationError{Message: editor.GalleryRequiredMessage}).Once()
	ct, body := form(t, map[string]string{"title": ""}, nil)
	resp := h.do(http.MethodPost, "/api/galleries", ct, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, editor.GalleryRequiredMessage, decode[errorResponse](t, resp).Error)

	h.players.On("Update", mock.Anything, "p1", editor.PlayerInput{Name: "Ana", Position: "Base"}, (*editor.Upload)(nil)).
		Return(nil, &editor.SaveError{Collection: "players", Err: io.ErrUnexpectedEOF}).Once()
	ct, body = form(t, map[string]string{"name": "Ana", "position": "Base"}, nil)
	resp = h.do(http.MethodPut, "/api/players/p1", ct, body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Hubo un error al guardar el jugador. Inténtalo de nuevo.", decode[errorResponse](t, resp).Error)

	h.sponsors.On("Delete", mock.Anything, "gone").
		Return(&editor.DeleteError{Collection: "sponsors", ID: "gone", Err: docstore.ErrNotFound}).Once()
	resp = h.do(http.MethodDelete, "/api/sponsors/gone", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No se pudo eliminar el patrocinador.", decode[errorResponse](t, resp).Error)
}

func TestCreateSponsorsBatch(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.login(adminPassword).StatusCode)

	h.sponsors.On("CreateMany", mock.Anything, mock.MatchedBy(func(logos []editor.Upload) bool {
		return len(logos) == 2
	})).Return([]content.Sponsor{{ID: "a"}, {ID: "b"}}, nil).Once()

	ct, body := form(t, nil, map[string][]string{"logos": {"a.png", "b.png"}})
	resp := h.do(http.MethodPost, "/api/sponsors", ct, body)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, decode[[]content.Sponsor](t, resp), 2)
	h.sponsors.AssertExpectations(t)
}

func TestListsAndDetails(t *testing.T) {
	h := newHarness(t)

	news := decode[[]content.News](t, h.do(http.MethodGet, "/api/news", "", nil))
	require.Len(t, news, 1)
	assert.Equal(t, "primera", news[0].Slug)

	galleries := h.do(http.MethodGet, "/api/galleries", "", nil)
	body, _ := io.ReadAll(galleries.Body)
	assert.JSONEq(t, `[]`, string(body))

	resp := h.do(http.MethodGet, "/api/news/primera", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(http.MethodGet, "/api/news/no-existe", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, NewsNotFoundMessage, decode[errorResponse](t, resp).Error)

	resp = h.do(http.MethodGet, "/api/galleries/no-existe", "", nil)
	assert.Equal(t, GalleryNotFoundMessage, decode[errorResponse](t, resp).Error)

	board := decode[content.SponsorBoard](t, h.do(http.MethodGet, "/api/sponsors", "", nil))
	require.Len(t, board.Main, 1)
	assert.Equal(t, content.NamingSponsorLabel, board.Main[0].Label)
	require.Len(t, board.Official, 1)
	assert.Equal(t, "Bar Pepe", board.Official[0].Name)
}

func TestContact(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodPost, "/api/contact", "application/json", strings.NewReader(
		`{"name":"Lucía","email":"l@x.es","subject":"Hola","message":"¿Horarios?","privacyAccepted":true,"honeypot":"bot"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, contact.SpamMessage, decode[errorResponse](t, resp).Error)

	resp = h.do(http.MethodPost, "/api/contact", "application/json", strings.NewReader(
		`{"name":"Lucía","email":"l@x.es","subject":"Hola","message":"¿Horarios?","privacyAccepted":false}`))
	assert.Equal(t, contact.PrivacyMessage, decode[errorResponse](t, resp).Error)

	resp = h.do(http.MethodPost, "/api/contact", "application/json", strings.NewReader(
		`{"name":"Lucía","email":"l@x.es","subject":"Hola","message":"¿Horarios?","privacyAccepted":true}`))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, contact.SuccessMessage, decode[contactResponse](t, resp).Message)
}

func TestLiveFeedPushesSnapshotsAndGate(t *testing.T) {
	h := newHarness(t)

	// first request issues the session cookie the socket will carry
	h.do(http.MethodGet, "/api/session", "", nil)

	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/api/live/news"
	dialer := websocket.Dialer{Jar: h.client.Jar, HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	next := func() Frame[content.News] {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var f Frame[content.News]
		require.NoError(t, conn.ReadJSON(&f))
		return f
	}

	f := next()
	assert.Equal(t, "news", f.Collection)
	assert.False(t, f.CanEdit)
	require.Len(t, f.Items, 1)

	require.Equal(t, http.StatusOK, h.login(adminPassword).StatusCode)
	f = next()
	assert.True(t, f.CanEdit, "login flips the gate without any action from the viewer")

	h.newsSrc.set(
		content.News{ID: "n2", Slug: "segunda"},
		content.News{ID: "n1", Slug: "primera"},
	)
	f = next()
	require.Len(t, f.Items, 2)
	assert.Equal(t, "segunda", f.Items[0].Slug)
	assert.True(t, f.CanEdit)

	h.do(http.MethodDelete, "/api/session", "", nil)
	f = next()
	assert.False(t, f.CanEdit)
}

func TestLiveUnknownCollection(t *testing.T) {
	h := newHarness(t)

	resp := h.do(http.MethodGet, "/api/live/users", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
