package handlers

import (
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-manager/internal/middleware"
	"github.com/ukydev/fleet-manager/internal/policy"
	"github.com/ukydev/fleet-manager/internal/storage"
)

// multipartOverhead leaves room for the form boundaries and other fields.
const multipartOverhead = 1 << 20

// UploadHandler forwards images to object storage.
type UploadHandler struct {
	uploader storage.Uploader
	gate     *policy.Gate
	prefix   string
}

func NewUploadHandler(uploader storage.Uploader, gate *policy.Gate) *UploadHandler {
	return &UploadHandler{uploader: uploader, gate: gate, prefix: "images"}
}

// UploadResponse carries the public URL of a stored image.
type UploadResponse struct {
	URL string `json:"url"`
}

// UploadImage reads the multipart field "file", checks size and type, and stores it.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.GetUserFromContext(r.Context())
	if err := h.gate.Authorize(r.Context(), claims, policy.ActionCreate, policy.ResourceUploads, nil); err != nil {
		middleware.WritePolicyError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageSize+multipartOverhead)
	if err := r.ParseMultipartForm(storage.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error(), "too-large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form", "bad-request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", "bad-request")
		return
	}
	defer file.Close()

	if header.Size > storage.MaxImageSize {
		writeError(w, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error(), "too-large")
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeInternal(w, r, err, "Failed to read upload")
		return
	}
	contentType, err := storage.ValidateImage(header.Header.Get("Content-Type"), head[:n])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "not-image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeInternal(w, r, err, "Failed to rewind upload")
		return
	}

	name := storage.ObjectName(h.prefix, contentType)
	url, err := h.uploader.Upload(r.Context(), name, contentType, file)
	if err != nil {
		writeInternal(w, r, err, "Failed to store image")
		return
	}
	log.WithFields(log.Fields{
		"object":  name,
		"size":    header.Size,
		"type":    contentType,
		"user_id": claims.UserID,
	}).Info("Image uploaded")
	writeJSON(w, http.StatusCreated, UploadResponse{URL: url})
}
