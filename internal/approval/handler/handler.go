// Package handler exposes the financial request workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"tradedesk/pkg/domain"
	"tradedesk/pkg/platform/httputil"
	"tradedesk/pkg/requestcontext"
)

// Workflow is the approval engine surface the transport layer consumes.
type Workflow interface {
	List(ctx context.Context, kind domain.RequestKind, filter domain.StatusFilter) ([]domain.FinancialRequest, error)
	Approve(ctx context.Context, kind domain.RequestKind, id domain.RequestID) error
	Reject(ctx context.Context, kind domain.RequestKind, id domain.RequestID, reason string) error
}

// Handler wires approval endpoints to the workflow engine.
type Handler struct {
	workflow Workflow
	logger   *slog.Logger
}

// New constructs an approval handler.
func New(workflow Workflow, logger *slog.Logger) *Handler {
	return &Handler{
		workflow: workflow,
		logger:   logger,
	}
}

// Register mounts approval endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/requests/{kind}", h.HandleList)
	r.Post("/admin/requests/{kind}/{id}/approve", h.HandleApprove)
	r.Post("/admin/requests/{kind}/{id}/reject", h.HandleReject)
	r.Get("/console/summary", h.HandleSummary)
}

// parseKind maps the URL segment to a request kind. The engine validates the
// result, so unknown segments fall through as-is.
func parseKind(segment string) domain.RequestKind {
	switch strings.ToLower(segment) {
	case "deposits", "deposit":
		return domain.KindDeposit
	case "withdrawals", "withdrawal":
		return domain.KindWithdrawal
	default:
		return domain.RequestKind(segment)
	}
}

// HandleList handles GET /admin/requests/{kind}?status= requests. An absent
// status means no filtering.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind := parseKind(chi.URLParam(r, "kind"))
	filter := domain.StatusFilter(strings.ToUpper(r.URL.Query().Get("status")))
	if filter == "" {
		filter = domain.FilterAll
	}

	requests, err := h.workflow.List(ctx, kind, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "request listing failed",
			"kind", kind,
			"filter", filter,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, requests)
}

// HandleApprove handles POST /admin/requests/{kind}/{id}/approve requests.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind := parseKind(chi.URLParam(r, "kind"))
	id := domain.RequestID(chi.URLParam(r, "id"))

	if err := h.workflow.Approve(ctx, kind, id); err != nil {
		h.logger.WarnContext(ctx, "approve failed",
			"kind", kind,
			"id", id,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "request approved",
		"kind", kind,
		"id", id,
		"request_id", requestcontext.RequestID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

// RejectRequest is the rejection payload. The reason is optional; deposits
// ignore it entirely and blank withdrawal reasons get a default downstream.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// HandleReject handles POST /admin/requests/{kind}/{id}/reject requests.
// An empty body is accepted as an empty reason.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	kind := parseKind(chi.URLParam(r, "kind"))
	id := domain.RequestID(chi.URLParam(r, "id"))

	var req RejectRequest
	if r.Body != nil && r.ContentLength != 0 {
		var ok bool
		req, ok = httputil.DecodeAndPrepare[RejectRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
	}

	if err := h.workflow.Reject(ctx, kind, id, req.Reason); err != nil {
		h.logger.WarnContext(ctx, "reject failed",
			"kind", kind,
			"id", id,
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "request rejected",
		"kind", kind,
		"id", id,
		"request_id", requestID,
	)
	w.WriteHeader(http.StatusNoContent)
}

// KindSummary aggregates one directory for the console landing view.
type KindSummary struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
}

// SummaryResponse is both directories side by side.
type SummaryResponse struct {
	Deposits    KindSummary `json:"deposits"`
	Withdrawals KindSummary `json:"withdrawals"`
}

// HandleSummary handles GET /console/summary requests. Both directories are
// fetched in parallel; either failure fails the summary.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var response SummaryResponse
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		requests, err := h.workflow.List(gctx, domain.KindDeposit, domain.FilterAll)
		if err != nil {
			return err
		}
		response.Deposits = summarize(requests)
		return nil
	})
	g.Go(func() error {
		requests, err := h.workflow.List(gctx, domain.KindWithdrawal, domain.FilterAll)
		if err != nil {
			return err
		}
		response.Withdrawals = summarize(requests)
		return nil
	})

	if err := g.Wait(); err != nil {
		h.logger.ErrorContext(ctx, "summary fetch failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, response)
}

func summarize(requests []domain.FinancialRequest) KindSummary {
	summary := KindSummary{Total: len(requests)}
	for _, req := range requests {
		if req.Pending() {
			summary.Pending++
		}
	}
	return summary
}
