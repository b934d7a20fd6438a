package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avelichko/shelfdrive/internal/common"
	"github.com/avelichko/shelfdrive/internal/server/models"
	"github.com/avelichko/shelfdrive/internal/server/services"
)

// maxUploadSize bounds the multipart form we are willing to buffer.
const maxUploadSize = 32 << 20

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the service's typed errors onto HTTP statuses:
// validation 400, forbidden 403, not found 404, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, common.ErrorForbidden):
		respondJSON(w, http.StatusForbidden, errorBody{Error: "Not authorized"})
	case errors.Is(err, common.ErrorNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "File not found"})
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// parseForm accepts multipart (the web client's upload form) and falls
// back to urlencoded bodies.
func parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return r.ParseForm()
		}
		return err
	}
	return nil
}

// formPtr distinguishes "field absent" (nil) from "field set to empty".
func formPtr(r *http.Request, key string) *string {
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
			return &vs[0]
		}
		return nil
	}
	if vs, ok := r.PostForm[key]; ok && len(vs) > 0 {
		return &vs[0]
	}
	return nil
}

func parseBoolField(v string) bool {
	return v == "true" || v == "1"
}

// uploadedBlob stores the optional "file" part and returns its reference,
// or nil when the request carries no file.
func (s *Server) uploadedBlob(w http.ResponseWriter, r *http.Request) (*models.BlobRef, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid file upload"})
		return nil, false
	}
	defer file.Close()

	ref, err := s.uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		s.logger.Error(r.Context(), "upload failed", "filename", header.Filename, "error", err.Error())
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "upload failed"})
		return nil, false
	}
	return ref, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := parseForm(r); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid form"})
		return
	}

	blob, ok := s.uploadedBlob(w, r)
	if !ok {
		return
	}

	rec, err := s.records.Create(r.Context(), caller, services.CreateParams{
		Title:       r.FormValue("title"),
		Author:      r.FormValue("author"),
		Description: r.FormValue("description"),
		Public:      parseBoolField(r.FormValue("isPublic")),
		Blob:        blob,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	// anonymous callers may still read public records
	rec, err := s.records.Get(r.Context(), callerID(r), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := parseForm(r); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid form"})
		return
	}

	blob, ok := s.uploadedBlob(w, r)
	if !ok {
		return
	}

	p := services.UpdateParams{
		Title:       formPtr(r, "title"),
		Author:      formPtr(r, "author"),
		Description: formPtr(r, "description"),
		Blob:        blob,
	}
	if v := formPtr(r, "isPublic"); v != nil {
		public := parseBoolField(*v)
		p.Public = &public
	}

	rec, err := s.records.Update(r.Context(), caller, r.PathValue("id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleToggleStar(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	starred, err := s.records.ToggleStar(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	message := "File unstarred"
	if starred {
		message = "File starred"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"starred": starred,
	})
}

func (s *Server) handleTrash(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	if err := s.records.Trash(r.Context(), caller, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "File moved to Recycle Bin"})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	rec, err := s.records.Restore(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "File restored successfully",
		"file":    rec,
	})
}

func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	if err := s.records.Purge(r.Context(), caller, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "File permanently deleted"})
}

func (s *Server) handleView(view services.View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := callerID(r)
		if view != services.ViewPublic {
			var ok bool
			if caller, ok = requireCaller(w, r); !ok {
				return
			}
		}

		recs, err := s.records.ListView(r.Context(), caller, view)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if recs == nil {
			recs = []*models.FileRecord{}
		}
		respondJSON(w, http.StatusOK, recs)
	}
}
