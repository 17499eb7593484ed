package httpapi

import (
	"bytes"
	"context"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"club-site/internal/auth"
	"club-site/internal/contact"
	"club-site/internal/content"
	"club-site/internal/docstore"
	"club-site/internal/editor"
	"club-site/internal/livesync"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@club.es"
	adminPassword = "canasta"
)

// pngMagic is enough for content sniffing to report image/png.
var pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// memSource feeds a livesync.Adapter from memory; set triggers a change.
type memSource[T any] struct {
	mu      sync.Mutex
	items   []T
	changed chan struct{}
}

func newMemSource[T any](items ...T) *memSource[T] {
	return &memSource[T]{items: items, changed: make(chan struct{}, 1)}
}

func (m *memSource[T]) List(ctx context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T{}, m.items...), nil
}

func (m *memSource[T]) Changes(ctx context.Context) (docstore.ChangeStream, error) {
	return &memStream{changed: m.changed}, nil
}

func (m *memSource[T]) set(items ...T) {
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
	m.changed <- struct{}{}
}

type memStream struct {
	changed chan struct{}
}

func (s *memStream) Next(ctx context.Context) bool {
	select {
	case <-s.changed:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *memStream) Err() error                      { return nil }
func (s *memStream) Close(ctx context.Context) error { return nil }

// startFeed runs an adapter until the test ends and waits for its first load.
func startFeed[T any](t *testing.T, name string, src *memSource[T]) *livesync.Adapter[T] {
	t.Helper()
	a := livesync.New[T](name, src, log.New(io.Discard, "", 0))
	sub := a.Subscribe()
	defer sub.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = a.Run(ctx) }()

	select {
	case <-sub.C():
	case <-time.After(2 * time.Second):
		t.Fatalf("%s feed never loaded", name)
	}
	return a
}

type memUsers struct {
	users map[string]*auth.User
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, docstore.ErrNotFound
}

func (m *memUsers) FindByID(ctx context.Context, id string) (*auth.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, docstore.ErrNotFound
}

func (m *memUsers) Save(ctx context.Context, u *auth.User) error {
	m.users[u.Email] = u
	return nil
}

type memFinder[T any] struct {
	bySlug map[string]*T
}

func (f memFinder[T]) FindBy(ctx context.Context, field string, value any) (*T, error) {
	if doc, ok := f.bySlug[value.(string)]; ok && field == "slug" {
		return doc, nil
	}
	return nil, docstore.ErrNotFound
}

type mockNewsEditor struct{ mock.Mock }

func (m *mockNewsEditor) Create(ctx context.Context, in editor.NewsInput, image *editor.Upload) (*content.News, error) {
	args := m.Called(ctx, in, image)
	n, _ := args.Get(0).(*content.News)
	return n, args.Error(1)
}

func (m *mockNewsEditor) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockGalleryEditor struct{ mock.Mock }

func (m *mockGalleryEditor) Create(ctx context.Context, title string, files []editor.Upload) (*content.Gallery, error) {
	args := m.Called(ctx, title, files)
	g, _ := args.Get(0).(*content.Gallery)
	return g, args.Error(1)
}

func (m *mockGalleryEditor) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPlayerEditor struct{ mock.Mock }

func (m *mockPlayerEditor) Create(ctx context.Context, in editor.PlayerInput, image *editor.Upload) (*content.Player, error) {
	args := m.Called(ctx, in, image)
	p, _ := args.Get(0).(*content.Player)
	return p, args.Error(1)
}

func (m *mockPlayerEditor) Update(ctx context.Context, id string, in editor.PlayerInput, image *editor.Upload) (*content.Player, error) {
	args := m.Called(ctx, id, in, image)
	p, _ := args.Get(0).(*content.Player)
	return p, args.Error(1)
}

func (m *mockPlayerEditor) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockSponsorEditor struct{ mock.Mock }

func (m *mockSponsorEditor) Create(ctx context.Context, name string, logo *editor.Upload) (*content.Sponsor, error) {
	args := m.Called(ctx, name, logo)
	s, _ := args.Get(0).(*content.Sponsor)
	return s, args.Error(1)
}

func (m *mockSponsorEditor) CreateMany(ctx context.Context, logos []editor.Upload) ([]content.Sponsor, error) {
	args := m.Called(ctx, logos)
	s, _ := args.Get(0).([]content.Sponsor)
	return s, args.Error(1)
}

func (m *mockSponsorEditor) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client

	news      *mockNewsEditor
	galleries *mockGalleryEditor
	players   *mockPlayerEditor
	sponsors  *mockSponsorEditor

	newsSrc     *memSource[content.News]
	sponsorsSrc *memSource[content.Sponsor]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	users := &memUsers{users: map[string]*auth.User{
		adminEmail: {ID: "u1", Email: adminEmail, PasswordHash: string(hash)},
	}}
	discard := log.New(io.Discard, "", 0)
	authSvc := auth.NewService(users, auth.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false), nil, discard)

	h := &harness{
		t:           t,
		news:        &mockNewsEditor{},
		galleries:   &mockGalleryEditor{},
		players:     &mockPlayerEditor{},
		sponsors:    &mockSponsorEditor{},
		newsSrc:     newMemSource(content.News{ID: "n1", Title: "Primera", Slug: "primera"}),
		sponsorsSrc: newMemSource(
			content.Sponsor{ID: "s1", Name: "Naming", LogoURL: "https://cdn/naming.png"},
			content.Sponsor{ID: "s2", Name: "Bar Pepe", LogoURL: "https://cdn/pepe.png"},
		),
	}

	router := NewRouter(Deps{
		Auth:          authSvc,
		Contact:       contact.NewService(discard),
		News:          h.news,
		Galleries:     h.galleries,
		Players:       h.players,
		Sponsors:      h.sponsors,
		NewsFeed:      startFeed(t, "news", h.newsSrc),
		GalleriesFeed: startFeed(t, "galleries", newMemSource[content.Gallery]()),
		PlayersFeed:   startFeed(t, "players", newMemSource(content.Player{ID: "p1", Name: "Ana"})),
		SponsorsFeed:  startFeed(t, "sponsors", h.sponsorsSrc),
		NewsBySlug: memFinder[content.News]{bySlug: map[string]*content.News{
			"primera": {ID: "n1", Title: "Primera", Slug: "primera"},
		}},
		GalleriesBySlug: memFinder[content.Gallery]{bySlug: map[string]*content.Gallery{}},
		MainSponsors:    content.MainSponsors{NamingURL: "https://cdn/naming.png"},
		MaxUploadBytes:  1 << 20,
		Logger:          discard,
	})

	h.srv = httptest.NewServer(router)
	t.Cleanup(h.srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	h.client = &http.Client{Jar: jar}
	return h
}

func (h *harness) do(method, path, contentType string, body io.Reader) *http.Response {
	h.t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, body)
	require.NoError(h.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (h *harness) login(password string) *http.Response {
	body := `{"email":"` + adminEmail + `","password":"` + password + `"}`
	return h.do(http.MethodPost, "/api/session", "application/json", strings.NewReader(body))
}

// form builds a multipart body; files are keyed by field and file name.
func form(t *testing.T, fields map[string]string, files map[string][]string) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, names := range files {
		for _, name := range names {
			fw, err := mw.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = fw.Write(pngMagic)
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), &buf
}
