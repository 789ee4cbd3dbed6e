package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lumera/insight-engine/internal/pkg/httputil"
	"github.com/lumera/insight-engine/internal/quota"
	"github.com/lumera/insight-engine/internal/review"
)

type generateReviewRequest struct {
	ForceRegenerate   bool   `json:"force_regenerate"`
	AllowAIGeneration *bool  `json:"allow_ai_generation"`
	BusinessContext   string `json:"business_context"`
}

// GenerateReview runs the review orchestrator for one month.
//
//	POST /api/review/{month}/generate
//
// A locked month (too few analyzed posts) is a normal 200 response with
// state "locked". Quota exhaustion maps to 429.
func (h *Handlers) GenerateReview(w http.ResponseWriter, r *http.Request) {
	userID, tier, ok := identity(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, chi.URLParam(r, "month"))
	if !ok {
		return
	}

	var req generateReviewRequest
	if r.ContentLength > 0 && !httputil.Decode(w, r, &req) {
		return
	}
	allowAI := h.bedrockEnabled
	if req.AllowAIGeneration != nil {
		allowAI = allowAI && *req.AllowAIGeneration
	}

	agg, err := h.insights.AggregateMonth(r.Context(), userID, month)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	result, err := h.reviews.Generate(r.Context(), review.GenerateInput{
		UserID:            userID,
		Month:             month,
		Tier:              tier,
		ForceRegenerate:   req.ForceRegenerate,
		AllowAIGeneration: allowAI,
		Aggregate:         agg,
		BusinessContext:   req.BusinessContext,
	})
	if err != nil {
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			httputil.TooManyRequests(w, "monthly AI usage limit reached", map[string]any{
				"month":     exceeded.Month,
				"limit":     exceeded.Limit,
				"used":      exceeded.Used,
				"remaining": exceeded.Remaining(),
			})
			return
		}
		if errors.Is(err, review.ErrInvalidMonth) {
			httputil.BadRequest(w, err.Error())
			return
		}
		if errors.Is(err, review.ErrGenerationInProgress) {
			httputil.Conflict(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, result)
}

// GetReview returns the stored review state without generating anything.
//
//	GET /api/review/{month}
func (h *Handlers) GetReview(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := identity(w, r)
	if !ok {
		return
	}
	month, ok := monthParam(w, chi.URLParam(r, "month"))
	if !ok {
		return
	}

	agg, err := h.insights.AggregateMonth(r.Context(), userID, month)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	result, err := h.reviews.Get(r.Context(), userID, month, agg)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, result)
}
