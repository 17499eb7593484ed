package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"club-site/internal/docstore"
	"club-site/internal/editor"
)

const (
	InternalErrorMessage = "Se ha producido un error. Inténtalo de nuevo más tarde."
	BadFormMessage       = "No se pudo leer el formulario."
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps editor failures to a status and their localized message.
// The editor has already logged them.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	var (
		verr *editor.ValidationError
		serr *editor.SaveError
		derr *editor.DeleteError
	)

	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Message)
	case errors.As(err, &serr):
		writeMessage(w, http.StatusInternalServerError, serr.Message())
	case errors.As(err, &derr):
		status := http.StatusInternalServerError
		if errors.Is(err, docstore.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeMessage(w, status, derr.Message())
	default:
		logger.Printf("http: unexpected error: %v", err)
		writeMessage(w, http.StatusInternalServerError, InternalErrorMessage)
	}
}

// parseForm reads a multipart body of at most limit bytes.
func parseForm(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return r.ParseMultipartForm(limit)
}

// uploads reads every file sent under field. A missing or generic content
// type is sniffed from the bytes.
func uploads(r *http.Request, field string) ([]editor.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[field]
	out := make([]editor.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			ct = http.DetectContentType(data)
		}
		out = append(out, editor.Upload{
			Filename:    fh.Filename,
			ContentType: ct,
			Data:        data,
		})
	}
	return out, nil
}

// upload returns the first file under field, or nil.
func upload(r *http.Request, field string) (*editor.Upload, error) {
	files, err := uploads(r, field)
	if err != nil || len(files) == 0 {
		return nil, err
	}
	return &files[0], nil
}
