// Package state expone los endpoints de preferencias y anotaciones.
package state

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/authcore/internal/apperr"
	"github.com/dropDatabas3/authcore/internal/http/helpers"
	"github.com/dropDatabas3/authcore/internal/state"
)

type Controller struct {
	states *state.Service
}

func NewController(states *state.Service) *Controller {
	return &Controller{states: states}
}

func (c *Controller) GetPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.IdentityFrom(r.Context())
	if !ok {
		helpers.WriteAppError(w, r, apperr.ErrUnauthorized)
		return
	}
	data, err := c.states.GetPreferences(r.Context(), id.UserID)
	if err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, data)
}

func (c *Controller) PutPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.IdentityFrom(r.Context())
	if !ok {
		helpers.WriteAppError(w, r, apperr.ErrUnauthorized)
		return
	}
	data, ok := readRawJSON(w, r)
	if !ok {
		return
	}
	if err := c.states.SavePreferences(r.Context(), id.UserID, data); err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) GetAnnotation(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.IdentityFrom(r.Context())
	if !ok {
		helpers.WriteAppError(w, r, apperr.ErrUnauthorized)
		return
	}
	data, err := c.states.GetAnnotation(r.Context(), id.UserID, chi.URLParam(r, "studyUID"))
	if err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, data)
}

func (c *Controller) PutAnnotation(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.IdentityFrom(r.Context())
	if !ok {
		helpers.WriteAppError(w, r, apperr.ErrUnauthorized)
		return
	}
	data, ok := readRawJSON(w, r)
	if !ok {
		return
	}
	if err := c.states.SaveAnnotation(r.Context(), id.UserID, chi.URLParam(r, "studyUID"), data); err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.IdentityFrom(r.Context())
	if !ok {
		helpers.WriteAppError(w, r, apperr.ErrUnauthorized)
		return
	}
	if err := c.states.DeleteAnnotation(r.Context(), id.UserID, chi.URLParam(r, "studyUID")); err != nil {
		helpers.WriteAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readRawJSON lee el body como blob JSON sin interpretar su forma. El
// service valida sintaxis y tamaño.
func readRawJSON(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		helpers.WriteAppError(w, r, apperr.ErrBadRequest.WithDetail("unable to read request body"))
		return nil, false
	}
	return raw, true
}
