package handler

import (
	"errors"
	"io"
	"net/http"

	"mindfullens/internal/apperr"
	"mindfullens/internal/model"
)

// multipart overhead allowed on top of the file itself
const formOverhead = 1 << 20

// readUpload reads the multipart "file" field. The declared size is checked
// before the content is read, so an oversized file is never buffered.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (model.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.Upload{}, apperr.FileTooLarge(maxBytes)
		}
		return model.Upload{}, apperr.Validation("expected multipart form with a file field", map[string]string{"file": "required"})
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return model.Upload{}, apperr.Validation("expected multipart form with a file field", map[string]string{"file": "required"})
	}
	defer file.Close()

	upload := model.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if upload.Size > maxBytes {
		return upload, apperr.FileTooLarge(maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return upload, apperr.ExtractionFailed(err)
	}
	upload.Data = data
	upload.Size = int64(len(data))
	return upload, nil
}
