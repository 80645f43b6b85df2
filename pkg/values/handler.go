package values

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/transport"
)

// maxValueBody caps PUT and POST bodies.
const maxValueBody = 64 << 10

// Handler serves the values resource.
//
//	GET    /api/values       list all values, ordered by ID
//	GET    /api/values/{id}  one value
//	PUT    /api/values/{id}  create or replace (201 when new, 204 otherwise)
//	POST   /api/values/{id}  create (409 when the ID exists)
//	DELETE /api/values/{id}  remove
//
// Values travel as JSON strings.
type Handler struct {
	store *Store
}

// NewHandler creates a handler backed by store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/values", h.handleList)
	mux.HandleFunc("GET /api/values/{id}", h.handleGet)
	mux.HandleFunc("PUT /api/values/{id}", h.handlePut)
	mux.HandleFunc("POST /api/values/{id}", h.handlePost)
	mux.HandleFunc("DELETE /api/values/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.store.Get(id)
	if err != nil {
		writeStoreError(w, id, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, ok := decodeValue(w, r)
	if !ok {
		return
	}

	created := h.store.Set(id, v)
	slog.Debug("value set", "id", id, "created", created, "subject", auth.SubjectFromContext(r.Context()))
	if created {
		w.WriteHeader(http.StatusCreated)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, ok := decodeValue(w, r)
	if !ok {
		return
	}

	if err := h.store.Create(id, v); err != nil {
		writeStoreError(w, id, err)
		return
	}
	slog.Debug("value created", "id", id, "subject", auth.SubjectFromContext(r.Context()))
	w.Header().Set("Location", "/api/values/"+strconv.Itoa(id))
	transport.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(id); err != nil {
		writeStoreError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		transport.WriteAPIError(w, transport.NewInvalidRequestError("id", "must be an integer"))
		return 0, false
	}
	return id, true
}

func decodeValue(w http.ResponseWriter, r *http.Request) (string, bool) {
	var v string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxValueBody)).Decode(&v); err != nil {
		transport.WriteAPIError(w, transport.NewInvalidRequestError("body", "must be a JSON string"))
		return "", false
	}
	return v, true
}

func writeStoreError(w http.ResponseWriter, id int, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		transport.WriteAPIError(w, transport.NewNotFoundError("value "+strconv.Itoa(id)+" not found"))
	case errors.Is(err, ErrConflict):
		transport.WriteAPIError(w, transport.NewConflictError("id", "value "+strconv.Itoa(id)+" already exists"))
	default:
		slog.Error("values store failed", "id", id, "error", err)
		transport.WriteAPIError(w, transport.NewServerError("internal error"))
	}
}
