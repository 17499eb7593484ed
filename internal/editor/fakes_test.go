package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"club-site/internal/blob"
	"club-site/internal/event"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const blobBase = "https://cdn.test/"

var fixedNow = time.UnixMilli(1718000000000)

func fixedClock() time.Time { return fixedNow }

// memBlobs is an in-memory blob.Store. Paths listed in failPut reject
// uploads.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut map[string]error
	failDel map[string]error
	puts    []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{
		objects: make(map[string][]byte),
		failPut: make(map[string]error),
		failDel: make(map[string]error),
	}
}

func (m *memBlobs) Put(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, objectPath)
	if err := m.failPut[objectPath]; err != nil {
		return "", err
	}
	m.objects[objectPath] = append([]byte(nil), data...)
	return blobBase + objectPath, nil
}

func (m *memBlobs) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.TrimPrefix(url, blobBase)
	if err := m.failDel[key]; err != nil {
		return err
	}
	if _, ok := m.objects[key]; !ok {
		return blob.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memBlobs) seed(objectPath string, data []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath] = data
	return blobBase + objectPath
}

// resolve returns the bytes behind a URL, or nil when the object is gone.
func (m *memBlobs) resolve(url string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[strings.TrimPrefix(url, blobBase)]
}

func (m *memBlobs) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puts)
}

type mockDocs[T any] struct {
	mock.Mock
}

func (m *mockDocs[T]) Insert(ctx context.Context, doc *T) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

func (m *mockDocs[T]) Get(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*T)
	return doc, args.Error(1)
}

func (m *mockDocs[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	return m.Called(ctx, id, fields).Error(0)
}

func (m *mockDocs[T]) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []event.Change
}

func (r *recordingNotifier) Notify(ctx context.Context, c event.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recordingNotifier) all() []event.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Change(nil), r.changes...)
}

func pngUpload(t *testing.T, name string, w, h int) Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return Upload{Filename: name, ContentType: "image/png", Data: buf.Bytes()}
}

var errStorage = errors.New("storage unavailable")
