package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-polyglot/internal/tags"
	"github.com/goliatone/go-polyglot/internal/validation"
)

type tagPayload struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (a *API) listTags(w http.ResponseWriter, r *http.Request) {
	page, err := a.tags.List(r.Context(), chi.URLParam(r, "lang"), parsePage(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) getTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"), "tag")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	tag, err := a.tags.Get(r.Context(), chi.URLParam(r, "lang"), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (a *API) createTag(w http.ResponseWriter, r *http.Request) {
	var payload tagPayload
	if err := decodePayload(r, validation.SchemaTag, &payload); err != nil {
		a.fail(w, r, err)
		return
	}
	tag, err := a.tags.Create(r.Context(), tags.CreateTagRequest{
		Language: chi.URLParam(r, "lang"),
		Name:     payload.Name,
		Title:    payload.Title,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (a *API) updateTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"), "tag")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var payload tagPayload
	if err := decodePayload(r, validation.SchemaTag, &payload); err != nil {
		a.fail(w, r, err)
		return
	}
	tag, err := a.tags.Update(r.Context(), tags.UpdateTagRequest{
		Language: chi.URLParam(r, "lang"),
		ID:       id,
		Name:     payload.Name,
		Title:    payload.Title,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (a *API) deleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"), "tag")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	outcome, err := a.tags.Delete(r.Context(), chi.URLParam(r, "lang"), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger.WithContext(r.Context()).Debug("http.tag.deleted", "tag_id", id, "outcome", outcome.Message())
	w.WriteHeader(http.StatusNoContent)
}
