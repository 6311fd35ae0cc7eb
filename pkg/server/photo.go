package server

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/juntas/pkg/model"
	"github.com/m-mizutani/juntas/pkg/utils/logging"
)

const (
	maxUploadSize = 10 << 20
	maxFormMemory = 1 << 20
	photoPrefix   = "photos/"
	sniffLength   = 512
)

// photoTypes maps the accepted sniffed content types to file extensions
var photoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var errUnsupportedPhoto = goerr.New("unsupported photo type")

func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return goerr.Wrap(err, "failed to parse multipart form")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return goerr.Wrap(err, "failed to parse form")
	}
	return nil
}

// sniffPhoto reads the head of the upload and checks its magic bytes
func sniffPhoto(r io.Reader) (contentType string, head []byte, err error) {
	buf := make([]byte, sniffLength)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, goerr.Wrap(err, "failed to read photo")
	}
	head = buf[:n]

	contentType = http.DetectContentType(head)
	if _, ok := photoTypes[contentType]; !ok {
		return "", nil, goerr.Wrap(errUnsupportedPhoto, "photo rejected", goerr.V("content_type", contentType))
	}
	return contentType, head, nil
}

// receivePhoto stores the uploaded photo, if any, and returns its URL.
// Without storage the field is ignored.
func (s *Server) receivePhoto(r *http.Request) (string, error) {
	if s.storage == nil || r.MultipartForm == nil {
		return "", nil
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to open uploaded photo")
	}
	defer file.Close()

	contentType, head, err := sniffPhoto(file)
	if err != nil {
		return "", err
	}

	key := photoPrefix + uuid.NewString() + photoTypes[contentType]
	w, err := s.storage.Put(r.Context(), key, contentType)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open photo object", goerr.V("key", key))
	}
	if _, err := io.Copy(w, io.MultiReader(bytes.NewReader(head), file)); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to upload photo", goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finish photo upload", goerr.V("key", key))
	}

	logging.From(r.Context()).Info("photo uploaded", "key", key, "content_type", contentType)
	return "/" + key, nil
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		http.NotFound(w, r)
		return
	}

	name := path.Clean("/" + chi.URLParam(r, "*"))
	if name == "/" || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	key := photoPrefix + strings.TrimPrefix(name, "/")

	reader, contentType, err := s.storage.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, model.ErrPhotoNotFound) {
			logging.From(r.Context()).Warn("photo not available", "key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer reader.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		logging.From(r.Context()).Debug("photo stream interrupted", "key", key, "error", err)
	}
}
