package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/service"
)

// FolderHandler exposes the folder procedures over HTTP. It also serves the
// folder's snippet listing, which is why it holds both services.
type FolderHandler struct {
	folders  *service.FolderService
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewFolderHandler creates a FolderHandler.
func NewFolderHandler(folders *service.FolderService, snippets *service.SnippetService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{folders: folders, snippets: snippets, logger: logger}
}

// HandleList returns all of the caller's folders as a flat list.
//
// HTTP: GET /api/folders
func (h *FolderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	folders, err := h.folders.ListByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, folders)
}

// HandleGetByID returns one of the caller's folders.
//
// HTTP: GET /api/folders/{id}
func (h *FolderHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	folder, err := h.folders.GetByID(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, folder)
}

// HandleChildren returns the direct child folders of a folder.
//
// HTTP: GET /api/folders/{id}/children
func (h *FolderHandler) HandleChildren(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	children, err := h.folders.Children(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, children)
}

// HandleSnippets returns the snippets inside a folder.
//
// HTTP: GET /api/folders/{id}/snippets
func (h *FolderHandler) HandleSnippets(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snippets, err := h.snippets.ListByFolder(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleCreate saves a new folder for the caller.
//
// HTTP: POST /api/folders
// BODY: {"title": "Work", "parentId": "none"}
func (h *FolderHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.CreateFolderInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	folder, err := h.folders.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, folder)
}

// HandleUpdate applies a partial update to one of the caller's folders.
//
// HTTP: PUT /api/folders/{id}
func (h *FolderHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in service.UpdateFolderInput
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

	folder, err := h.folders.Update(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, folder)
}

// HandleDelete removes one of the caller's folders, along with every child
// folder and contained snippet.
//
// HTTP: DELETE /api/folders/{id}
func (h *FolderHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.folders.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
