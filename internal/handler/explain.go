package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/explain"
)

// ExplainHandler streams AI explanations of code over a chunked plain-text
// response.
type ExplainHandler struct {
	explainer explain.Explainer
	logger    *slog.Logger
}

// NewExplainHandler creates an ExplainHandler.
func NewExplainHandler(explainer explain.Explainer, logger *slog.Logger) *ExplainHandler {
	return &ExplainHandler{explainer: explainer, logger: logger}
}

// explainRequest is the body for HandleExplain.
type explainRequest struct {
	Message string `json:"message"`
}

// HandleExplain generates an explanation of the submitted code and streams
// it back as text chunks, flushing after each one so the client sees output
// as the model produces it.
//
// Once the first chunk is written the status line is gone; a mid-stream
// failure can only truncate the body, never change the code.
//
// HTTP: POST /api/explain
// BODY: {"message": "<code to explain>"}
func (h *ExplainHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	if h.explainer == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "explanation service is not configured",
		})
		return
	}

	var req explainRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Message == "" {
		writeError(w, apperror.ValidationFailed("message", "message is required"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, apperror.ValidationFailed("stream", "streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	err := h.explainer.Explain(r.Context(), req.Message, func(chunk string) error {
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// Headers are already on the wire; log and let the truncated body
		// speak for itself.
		h.logger.Error("explain stream aborted", slog.String("error", err.Error()))
	}
}
