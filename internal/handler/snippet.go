// Package handler contains the HTTP layer: request decoding, response
// encoding, and nothing else. Handlers call exactly one service method and
// translate its result; all business rules live below.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/auth"
	"github.com/sakif/snippethub/internal/service"
)

// SnippetHandler exposes the snippet procedures over HTTP.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// callerID pulls the authenticated user from the request context. On routes
// behind RequireAuth it always succeeds; the fallback guards against wiring
// mistakes, not real traffic.
func callerID(r *http.Request) (string, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("sign in required")
	}
	return userID, nil
}

// HandleList returns all of the caller's snippets.
//
// HTTP: GET /api/snippets
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := h.snippets.ListByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleListStarred returns the caller's starred snippets.
//
// HTTP: GET /api/snippets/starred
func (h *SnippetHandler) HandleListStarred(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := h.snippets.ListStarred(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleGetByID returns one of the caller's snippets.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.GetByID(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleGetPublic returns a public snippet to any caller, signed in or not.
//
// HTTP: GET /api/snippets/{id}/public
func (h *SnippetHandler) HandleGetPublic(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetPublic(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleGetVisibility reports whether a snippet may be rendered anonymously.
// A snippet that doesn't exist reads as not public — the answer never leaks
// whether the id is real.
//
// HTTP: GET /api/snippets/{id}/visibility
func (h *SnippetHandler) HandleGetVisibility(w http.ResponseWriter, r *http.Request) {
	public, err := h.snippets.Visibility(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"public": public})
}

// HandleCreate saves a new snippet for the caller.
//
// HTTP: POST /api/snippets
// BODY: {"title": "...", "content": "...", "tags": "go,web", ...}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.CreateSnippetInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate applies a partial update to one of the caller's snippets.
// The id comes from the URL; an id in the body must match or be absent.
//
// HTTP: PUT /api/snippets/{id}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.UpdateSnippetInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	id := r.PathValue("id")
	if in.ID != "" && in.ID != id {
		writeError(w, apperror.ValidationFailed("id", "body id does not match URL"))
		return
	}
	in.ID = id

	snippet, err := h.snippets.Update(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes one of the caller's snippets.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.snippets.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// starRequest is the body for HandleStar.
type starRequest struct {
	Starred bool `json:"starred"`
}

// HandleStar sets or clears the starred flag on one of the caller's
// snippets. Anonymous callers never get here — the route requires auth, and
// the service filters by owner besides.
//
// HTTP: POST /api/snippets/{id}/star
// BODY: {"starred": true}
func (h *SnippetHandler) HandleStar(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req starRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.snippets.Star(r.Context(), r.PathValue("id"), userID, req.Starred); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"starred": req.Starred})
}

// HandleSearch returns public snippets whose title contains the query.
// Anonymous-friendly; an empty query yields an empty list, not an error.
//
// HTTP: GET /api/search?q=needle
func (h *SnippetHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.SearchPublic(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}
