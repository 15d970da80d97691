package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opchan-dev/opchan/internal/api"
	"github.com/opchan-dev/opchan/internal/config"
	"github.com/opchan-dev/opchan/internal/domain"
	internal_errors "github.com/opchan-dev/opchan/internal/errors"
)

// --- Mocks ---

type MockThreadService struct {
	MockCreate func(data domain.ThreadCreationData) (domain.Thread, error)
	MockList   func(page int) (domain.ThreadPage, error)
	MockGet    func(id domain.ThreadId) (domain.Thread, error)

	mu           sync.Mutex
	createCalled bool
	listedPage   int
}

func (m *MockThreadService) Create(data domain.ThreadCreationData) (domain.Thread, error) {
	m.mu.Lock()
	m.createCalled = true
	m.mu.Unlock()

	if m.MockCreate != nil {
		return m.MockCreate(data)
	}
	return domain.Thread{Id: 1, Title: data.Title, Message: data.Message}, nil
}

func (m *MockThreadService) List(page int) (domain.ThreadPage, error) {
	m.mu.Lock()
	m.listedPage = page
	m.mu.Unlock()

	if m.MockList != nil {
		return m.MockList(page)
	}
	return domain.ThreadPage{Threads: []domain.Thread{}, CurrentPage: 1, TotalPages: 1}, nil
}

func (m *MockThreadService) Get(id domain.ThreadId) (domain.Thread, error) {
	if m.MockGet != nil {
		return m.MockGet(id)
	}
	return domain.Thread{Id: id}, nil
}

type MockMedia struct {
	files map[string][]byte
}

func (m *MockMedia) Save(fileData io.Reader, subdir, filename string) (string, error) {
	return subdir + "/" + filename, nil
}

func (m *MockMedia) Read(filePath string) (io.ReadCloser, error) {
	data, ok := m.files[filePath]
	if !ok {
		return nil, errors.New("attachment not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockMedia) Delete(filePath string) error { return nil }

type MockHealth struct {
	pingErr error
}

func (m *MockHealth) Ping(ctx context.Context) error { return m.pingErr }

// --- Helpers ---

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{
		ThreadsPerPage:       10,
		MaxAttachmentBytes:   20 << 20,
		MaxDecodedImageBytes: 1 << 28,
		ThumbMaxSize:         250,
		MediaRootPath:        "media",
	}}
}

func testRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/threads", h.ListThreads)
	r.Post("/threads", h.CreateThread)
	r.Get("/threads/{thread}", h.GetThread)
	r.Get("/uploads/{file}", h.ServeUpload)
	r.Get("/thumbs/{file}", h.ServeThumb)
	return r
}

// multipartBody builds a thread-creation form. image may be nil.
func multipartBody(t *testing.T, title, message string, imageBytes []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("title", title))
	require.NoError(t, writer.WriteField("message", message))
	if imageBytes != nil {
		part, err := writer.CreateFormFile("image", "upload.jpg")
		require.NoError(t, err)
		_, err = part.Write(imageBytes)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func smallJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	return buf.Bytes()
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

// --- Tests ---

func TestCreateThreadHandler(t *testing.T) {
	t.Run("valid form returns 201 with the created thread", func(t *testing.T) {
		service := &MockThreadService{}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		body, contentType := multipartBody(t, "a title", "a message", nil)
		req := httptest.NewRequest(http.MethodPost, "/threads", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		testRouter(h).ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp api.ThreadResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, "a title", resp.Title)
		assert.Nil(t, resp.ImageURL)
	})

	t.Run("jpeg upload is forwarded to the service", func(t *testing.T) {
		var received domain.ThreadCreationData
		service := &MockThreadService{
			MockCreate: func(data domain.ThreadCreationData) (domain.Thread, error) {
				received = data
				return domain.Thread{Id: 7, Title: data.Title, Message: data.Message}, nil
			},
		}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		body, contentType := multipartBody(t, "pic thread", "look at this", smallJPEG(t))
		req := httptest.NewRequest(http.MethodPost, "/threads", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		testRouter(h).ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		require.NotNil(t, received.Image)
		assert.Equal(t, 8, received.Image.Width)
	})

	t.Run("missing fields return 400 without touching the service", func(t *testing.T) {
		service := &MockThreadService{}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		body, contentType := multipartBody(t, "", "a message", nil)
		req := httptest.NewRequest(http.MethodPost, "/threads", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		testRouter(h).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, service.createCalled)
	})

	t.Run("non-jpeg upload returns 400 and no thread is created", func(t *testing.T) {
		service := &MockThreadService{}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		body, contentType := multipartBody(t, "title", "message", smallPNG(t))
		req := httptest.NewRequest(http.MethodPost, "/threads", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		testRouter(h).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.False(t, service.createCalled)
	})

	t.Run("service validation error maps to 400", func(t *testing.T) {
		service := &MockThreadService{
			MockCreate: func(data domain.ThreadCreationData) (domain.Thread, error) {
				return domain.Thread{}, &internal_errors.ValidationError{Field: "title", Reason: "must be at most 75 characters"}
			},
		}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		body, contentType := multipartBody(t, "title", "message", nil)
		req := httptest.NewRequest(http.MethodPost, "/threads", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		testRouter(h).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "title")
	})

	t.Run("storage error maps to 500 without leaking details", func(t *testing.T) {
		service := &MockThreadService{
			MockCreate: func(data domain.ThreadCreationData) (domain.Thread, error) {
				return domain.Thread{}, &internal_errors.StorageError{Op: "insert thread", Err: errors.New("pq: secret details")}
			},
		}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		body, contentType := multipartBody(t, "title", "message", nil)
		req := httptest.NewRequest(http.MethodPost, "/threads", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()

		testRouter(h).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret")
	})
}

func TestListThreadsHandler(t *testing.T) {
	t.Run("empty listing is a valid page, not an error", func(t *testing.T) {
		h := New(&MockThreadService{}, &MockMedia{}, &MockHealth{}, testConfig())

		req := httptest.NewRequest(http.MethodGet, "/threads", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"threads":[]`)
		assert.Contains(t, rr.Body.String(), `"current_page":1`)
		assert.Contains(t, rr.Body.String(), `"total_pages":1`)
	})

	t.Run("page parameter is forwarded", func(t *testing.T) {
		service := &MockThreadService{}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		req := httptest.NewRequest(http.MethodGet, "/threads?page=3", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 3, service.listedPage)
	})

	t.Run("non-numeric page falls back to page 1", func(t *testing.T) {
		service := &MockThreadService{}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		req := httptest.NewRequest(http.MethodGet, "/threads?page=banana", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, service.listedPage)
	})

	t.Run("threads with images expose image_url", func(t *testing.T) {
		service := &MockThreadService{
			MockList: func(page int) (domain.ThreadPage, error) {
				return domain.ThreadPage{
					Threads: []domain.Thread{
						{Id: 2, Title: "with image", Message: "m", Image: &domain.Attachment{Ref: "/uploads/x.jpg", ThumbRef: "/thumbs/x.jpg"}},
						{Id: 1, Title: "plain", Message: "m"},
					},
					CurrentPage: 1,
					TotalPages:  1,
				}, nil
			},
		}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		req := httptest.NewRequest(http.MethodGet, "/threads", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.ThreadListResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.Len(t, resp.Threads, 2)
		require.NotNil(t, resp.Threads[0].ImageURL)
		assert.Equal(t, "/uploads/x.jpg", *resp.Threads[0].ImageURL)
		assert.Nil(t, resp.Threads[1].ImageURL)
	})
}

func TestGetThreadHandler(t *testing.T) {
	t.Run("returns the thread", func(t *testing.T) {
		service := &MockThreadService{
			MockGet: func(id domain.ThreadId) (domain.Thread, error) {
				return domain.Thread{Id: id, Title: "found"}, nil
			},
		}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		req := httptest.NewRequest(http.MethodGet, "/threads/123", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.ThreadResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, domain.ThreadId(123), resp.Id)
	})

	t.Run("non-numeric id returns 400", func(t *testing.T) {
		h := New(&MockThreadService{}, &MockMedia{}, &MockHealth{}, testConfig())

		req := httptest.NewRequest(http.MethodGet, "/threads/abc", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing thread returns 404", func(t *testing.T) {
		service := &MockThreadService{
			MockGet: func(id domain.ThreadId) (domain.Thread, error) {
				return domain.Thread{}, &internal_errors.ErrorWithStatusCode{Message: "Thread not found", StatusCode: http.StatusNotFound}
			},
		}
		h := New(service, &MockMedia{}, &MockHealth{}, testConfig())

		req := httptest.NewRequest(http.MethodGet, "/threads/999", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestServeMediaHandler(t *testing.T) {
	media := &MockMedia{files: map[string][]byte{"uploads/x.jpg": []byte("jpegdata")}}
	h := New(&MockThreadService{}, media, &MockHealth{}, testConfig())

	t.Run("serves stored bytes with immutable caching", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/uploads/x.jpg", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "jpegdata", rr.Body.String())
		assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Header().Get("Cache-Control"), "immutable")
	})

	t.Run("missing attachment returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/uploads/missing.jpg", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("path traversal names are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/uploads/..%2F..%2Fprivate.yaml", nil)
		rr := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rr, req)

		assert.NotEqual(t, http.StatusOK, rr.Code)
	})
}
