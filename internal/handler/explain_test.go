package handler_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/snippethub/internal/handler"
)

// stubExplainer plays back canned chunks, recording the code it was asked
// about.
type stubExplainer struct {
	chunks       []string
	err          error
	capturedCode string
}

func (s *stubExplainer) Explain(_ context.Context, code string, emit func(string) error) error {
	s.capturedCode = code
	for _, chunk := range s.chunks {
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return s.err
}

func newExplainHandler(explainer *stubExplainer) *handler.ExplainHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	if explainer == nil {
		return handler.NewExplainHandler(nil, logger)
	}
	return handler.NewExplainHandler(explainer, logger)
}

func TestHandleExplain_StreamsChunks(t *testing.T) {
	stub := &stubExplainer{chunks: []string{"This code ", "prints hello ", "to stdout."}}
	h := newExplainHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/explain",
		bytes.NewBufferString(`{"message":"print('hello')"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.HandleExplain(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "This code prints hello to stdout.", rr.Body.String())
	assert.Equal(t, "print('hello')", stub.capturedCode)
}

func TestHandleExplain_RejectsEmptyMessage(t *testing.T) {
	h := newExplainHandler(&stubExplainer{})

	req := httptest.NewRequest(http.MethodPost, "/api/explain",
		bytes.NewBufferString(`{"message":""}`))
	rr := httptest.NewRecorder()

	h.HandleExplain(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "validation_error")
}

func TestHandleExplain_UnconfiguredReportsUnavailable(t *testing.T) {
	h := newExplainHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/explain",
		bytes.NewBufferString(`{"message":"x"}`))
	rr := httptest.NewRecorder()

	h.HandleExplain(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

// A failure after the stream has started can only truncate the body — the
// 200 status is already committed.
func TestHandleExplain_MidStreamFailureTruncates(t *testing.T) {
	stub := &stubExplainer{
		chunks: []string{"partial "},
		err:    errors.New("upstream gone"),
	}
	h := newExplainHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/explain",
		bytes.NewBufferString(`{"message":"x"}`))
	rr := httptest.NewRecorder()

	h.HandleExplain(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "partial ", rr.Body.String())
}
