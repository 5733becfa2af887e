package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-polyglot/internal/posts"
	"github.com/goliatone/go-polyglot/internal/validation"
)

type tagRef struct {
	ID uuid.UUID `json:"id"`
}

// postPayload is the body of post writes. A null or absent "tags" keeps the
// current associations.
type postPayload struct {
	Translations posts.TranslationInput `json:"translations"`
	Tags         *[]tagRef              `json:"tags"`
}

func (p postPayload) tagIDs() []uuid.UUID {
	if p.Tags == nil {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(*p.Tags))
	for _, ref := range *p.Tags {
		ids = append(ids, ref.ID)
	}
	return ids
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	page, err := a.posts.List(r.Context(), chi.URLParam(r, "lang"), parsePage(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"), "post")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.posts.Get(r.Context(), chi.URLParam(r, "lang"), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	var payload postPayload
	if err := decodePayload(r, validation.SchemaPost, &payload); err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.posts.Create(r.Context(), posts.CreatePostRequest{
		Language:    chi.URLParam(r, "lang"),
		Translation: payload.Translations,
		TagIDs:      payload.tagIDs(),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (a *API) updatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"), "post")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var payload postPayload
	if err := decodePayload(r, validation.SchemaPost, &payload); err != nil {
		a.fail(w, r, err)
		return
	}
	post, err := a.posts.Update(r.Context(), posts.UpdatePostRequest{
		Language:    chi.URLParam(r, "lang"),
		ID:          id,
		Translation: payload.Translations,
		TagIDs:      payload.tagIDs(),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"), "post")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	outcome, err := a.posts.Delete(r.Context(), chi.URLParam(r, "lang"), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.logger.WithContext(r.Context()).Debug("http.post.deleted", "post_id", id, "outcome", outcome.Message())
	w.WriteHeader(http.StatusNoContent)
}

// searchPosts streams the hits as one JSON array. Once the first byte is
// written a cursor failure can only end the array early.
func (a *API) searchPosts(w http.ResponseWriter, r *http.Request) {
	seq, err := a.posts.Search(r.Context(), chi.URLParam(r, "lang"), r.URL.Query().Get("sq"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)

	_, _ = io.WriteString(w, "[")
	first := true
	for hit, err := range seq {
		if err != nil {
			a.logger.WithContext(r.Context()).Error("http.search.aborted", "error", err)
			break
		}
		if !first {
			_, _ = io.WriteString(w, ",")
		}
		first = false
		if err := encoder.Encode(hit); err != nil {
			a.logger.WithContext(r.Context()).Warn("http.search.write_failed", "error", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	_, _ = io.WriteString(w, "]")
}
