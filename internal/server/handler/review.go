// Package handler provides HTTP handlers for the Code-Lens API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sevigo/code-lens/internal/core"
)

// ReviewHandler serves POST /api/review.
type ReviewHandler struct {
	reviewer core.Reviewer
	maxBytes int64
	logger   *slog.Logger
}

// NewReviewHandler creates a handler that limits request bodies to maxBytes.
func NewReviewHandler(reviewer core.Reviewer, maxBytes int64, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewer: reviewer,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Handle decodes {code, language} and answers {review}. Only a missing code
// (400) or an oversized body (413) produce {error}; any other failure is
// rendered as a generic error message inside a 200 review.
func (h *ReviewHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var req core.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, core.ReviewResponse{Error: "Request body too large"})
			return
		}
		h.logger.Warn("could not decode review request", "error", err)
		h.writeUnexpected(w, fmt.Errorf("%w: decoding request body: %w", core.ErrUnexpected, err))
		return
	}

	review, err := h.reviewer.SubmitReview(r.Context(), req.Code, req.Language)
	if err != nil {
		if errors.Is(err, core.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, core.ReviewResponse{Error: "Code is required"})
			return
		}
		h.logger.Error("review failed", "error", err)
		h.writeUnexpected(w, err)
		return
	}

	writeJSON(w, http.StatusOK, core.ReviewResponse{Review: review})
}

type providerView struct {
	Name    string    `json:"name"`
	Tier    core.Tier `json:"tier"`
	Timeout string    `json:"timeout"`
}

// Providers serves GET /api/providers with the configured fallback chain.
func (h *ReviewHandler) Providers(w http.ResponseWriter, _ *http.Request) {
	infos := h.reviewer.Providers()
	views := make([]providerView, 0, len(infos))
	for _, info := range infos {
		views = append(views, providerView{Name: info.Name, Tier: info.Tier, Timeout: info.Timeout.String()})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *ReviewHandler) writeUnexpected(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusOK, core.ReviewResponse{Review: h.reviewer.Unexpected(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
