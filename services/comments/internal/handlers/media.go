package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/example/tubesocial/internal/platform/api"
	"github.com/example/tubesocial/internal/platform/httpserver"
	"github.com/example/tubesocial/internal/platform/media"
)

// MediaUploader pushes a staged local file to the CDN and removes it.
type MediaUploader interface {
	Upload(ctx context.Context, localPath string) (media.Result, error)
}

// UploadMedia handles POST /v1/media. The multipart "file" part is staged
// in a temporary file which the uploader removes whatever the outcome.
func UploadMedia(up MediaUploader, maxBytes int64, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		rid := httpserver.RequestIDFromContext(r.Context())

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		src, hdr, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				api.WriteError(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds upload limit", rid, nil)
				return
			}
			api.BadRequest(w, "MISSING_FILE", "multipart field 'file' is required", rid, nil)
			return
		}
		defer src.Close()

		path, err := stage(src, safeExt(hdr.Filename))
		if err != nil {
			log.Error("stage upload", zap.String("request_id", rid), zap.Error(err))
			api.Internal(w, rid)
			return
		}

		res, err := up.Upload(r.Context(), path)
		if err != nil {
			log.Warn("media upload failed", zap.String("request_id", rid), zap.Error(err))
			api.BadGateway(w, "UPLOAD_FAILED", "media upload failed", rid)
			return
		}
		api.WriteJSON(w, http.StatusCreated, res)
	}
}

// stage copies src into a new temporary file and returns its path. On
// failure the partial file is removed.
func stage(src io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp("", "comments-upload-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// safeExt keeps a short alphanumeric extension from the client filename.
func safeExt(name string) string {
	ext := filepath.Ext(name)
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}
