package widgets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/record"
)

var validate = validator.New()

type createRequest struct {
	Name  string  `json:"name"  validate:"required,max=191"`
	Color *string `json:"color" validate:"omitempty,max=32"`
}

type patchRequest struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

/*──────────────────────────── handlers ────────────────────────────────────*/

func (c *Comp) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	fields := map[string]any{"name": req.Name}
	if req.Color != nil {
		fields["color"] = *req.Color
	}

	rec := record.New[Widget](c.backend, c.opts...)
	id, err := rec.Create(r.Context(), fields)
	if err != nil {
		writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resource{ID: id, Widget: rec.Fields()})
}

func (c *Comp) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	rec, err := record.Get[Widget](r.Context(), c.backend, id, c.opts...)
	if err != nil {
		writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource{ID: id, Widget: rec.Fields()})
}

func (c *Comp) patch(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req patchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := record.Get[Widget](r.Context(), c.backend, id, c.opts...)
	if err == nil {
		_, err = rec.SetField(r.Context(), req.Field, req.Value)
	}
	if err != nil {
		writeRecordError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resource{ID: id, Widget: rec.Fields()})
}

func (c *Comp) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	rec, err := record.Get[Widget](r.Context(), c.backend, id, c.opts...)
	if err == nil {
		err = rec.Delete(r.Context())
	}
	if err != nil {
		writeRecordError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return validate.Struct(dst)
}

// statusFor maps record errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, record.ErrNotFound), errors.Is(err, record.ErrStaleIdentity):
		return http.StatusNotFound
	case errors.Is(err, record.ErrConflict), errors.Is(err, record.ErrConstraint):
		return http.StatusConflict
	case errors.Is(err, record.ErrUnknownField), errors.Is(err, record.ErrReadOnly),
		errors.Is(err, record.ErrFieldType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeRecordError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("widgets api", zap.Error(err))
		err = errors.New(http.StatusText(status))
	}
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("widgets encode", zap.Error(err))
	}
}
