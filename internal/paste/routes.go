package paste

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts paste endpoints on the given router. onDelete, if
// set, is called with the id of every removed paste.
func RegisterRoutes(r chi.Router, store *Store, onDelete func(id string)) {
	r.Get("/api/pastes", listPastesHandler(store))
	r.Post("/api/pastes", createPasteHandler(store))
	r.Get("/api/pastes/{id}", getPasteHandler(store))
	r.Get("/api/expiry", expiryHandler)
	r.Delete("/api/remove/{token}", removePasteHandler(store, onDelete))
	r.Get("/raw/{fileID}", rawFileHandler(store))
}

// createRequest is the JSON body for POST /api/pastes.
type createRequest struct {
	Expiry string `json:"expiry"`
	Files  []struct {
		Filename string `json:"filename"`
		Lexer    string `json:"lexer"`
		Content  string `json:"content"`
	} `json:"files"`
}

// createResponse is returned once; the removal token is not retrievable
// afterwards.
type createResponse struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Removal    string     `json:"removal"`
	RemovalURL string     `json:"removal_url"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// bodySlack covers JSON framing and escaping on top of the raw content.
const bodySlack = 64 << 10

// maxBodySize bounds a create request. Escaping can double the encoded size
// of content, so each file is allowed twice its limit.
func maxBodySize(l Limits) int64 {
	files, size := int64(l.MaxFiles), l.MaxFileSize
	if files <= 0 {
		files = 64
	}
	if size <= 0 {
		size = 256 << 10
	}
	return files*size*2 + bodySlack
}

func createPasteHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize(store.limits))
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		expiry, err := ParseExpiry(req.Expiry)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p := &Paste{Source: SourceAPI, Expiry: expiry}
		for _, f := range req.Files {
			p.Files = append(p.Files, File{Filename: f.Filename, Lexer: f.Lexer, Content: f.Content})
		}
		if err := p.Validate(store.limits); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.Create(r.Context(), p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, createResponse{
			ID:         p.ID,
			URL:        "/p/" + p.ID,
			Removal:    p.RemovalToken,
			RemovalURL: "/api/remove/" + p.RemovalToken,
			ExpiresAt:  p.ExpiresAt,
		})
	}
}

func listPastesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		result, err := store.List(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if result == nil {
			result = []Summary{}
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getPasteHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "paste not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// expiryHandler lists the accepted expiry names with their durations.
func expiryHandler(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]string, len(Expiries))
	for name, d := range Expiries {
		out[name] = d.String()
	}
	writeJSON(w, http.StatusOK, out)
}

func removePasteHandler(store *Store, onDelete func(string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := store.Remove(r.Context(), chi.URLParam(r, "token"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "paste not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if onDelete != nil {
			onDelete(id)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func rawFileHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := store.GetFile(r.Context(), chi.URLParam(r, "fileID"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(f.Content))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
