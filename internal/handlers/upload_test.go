package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-manager/internal/models"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/storage"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, name, contentType, data)
	return args.String(0), args.Error(1)
}

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func multipartRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler(t *testing.T) {
	t.Run("stores the image and returns its url", func(t *testing.T) {
		uploader := new(MockUploader)
		uploader.On("Upload", mock.Anything, mock.MatchedBy(func(name string) bool {
			return strings.HasPrefix(name, "images/") && strings.HasSuffix(name, ".png")
		}), "image/png", pngHeader).Return("https://cdn.example.com/images/x.png", nil)
		h := NewUploadHandler(uploader, policy.Default())

		req := asUser(multipartRequest(t, "file", "truck.png", "image/png", pngHeader), "o", models.RoleOperator)
		w := httptest.NewRecorder()
		h.UploadImage(w, req)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp UploadResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "https://cdn.example.com/images/x.png", resp.URL)
		uploader.AssertExpectations(t)
	})

	t.Run("declared non image", func(t *testing.T) {
		uploader := new(MockUploader)
		h := NewUploadHandler(uploader, policy.Default())

		req := asUser(multipartRequest(t, "file", "notes.txt", "text/plain", []byte("hello")), "o", models.RoleOperator)
		w := httptest.NewRecorder()
		h.UploadImage(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "not-image", decodeError(t, w).Code)
		uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("content is not an image", func(t *testing.T) {
		h := NewUploadHandler(new(MockUploader), policy.Default())
		req := asUser(multipartRequest(t, "file", "fake.png", "image/png", []byte("plain text pretending")), "o", models.RoleOperator)
		w := httptest.NewRecorder()
		h.UploadImage(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("svg is refused", func(t *testing.T) {
		uploader := new(MockUploader)
		h := NewUploadHandler(uploader, policy.Default())
		svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(document.cookie)</script></svg>`)
		req := asUser(multipartRequest(t, "file", "logo.svg", "image/svg+xml", svg), "o", models.RoleOperator)
		w := httptest.NewRecorder()
		h.UploadImage(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "not-image", decodeError(t, w).Code)
		uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("too large", func(t *testing.T) {
		h := NewUploadHandler(new(MockUploader), policy.Default())
		big := append(append([]byte{}, pngHeader...), make([]byte, storage.MaxImageSize+1)...)
		req := asUser(multipartRequest(t, "file", "huge.png", "image/png", big), "o", models.RoleOperator)
		w := httptest.NewRecorder()
		h.UploadImage(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("missing field", func(t *testing.T) {
		h := NewUploadHandler(new(MockUploader), policy.Default())
		req := asUser(multipartRequest(t, "photo", "truck.png", "image/png", pngHeader), "o", models.RoleOperator)
		w := httptest.NewRecorder()
		h.UploadImage(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("viewer cannot upload", func(t *testing.T) {
		h := NewUploadHandler(new(MockUploader), policy.Default())
		req := asUser(multipartRequest(t, "file", "truck.png", "image/png", pngHeader), "v", models.RoleViewer)
		w := httptest.NewRecorder()
		h.UploadImage(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
