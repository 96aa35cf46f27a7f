// Package backend is the console's only window onto the upstream trading
// backend. The contract is deliberately narrow: every call either succeeds
// with a payload or fails with an optional human-readable message; transport
// details beyond that never leak into the services.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tradedesk/pkg/domain"
	dErrors "tradedesk/pkg/domain-errors"
	"tradedesk/pkg/platform/circuit"
	"tradedesk/pkg/requestcontext"
)

const tracerName = "tradedesk/internal/backend"

// Client talks JSON over HTTP to the trading backend. The caller's bearer
// credential travels with every request via the context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	failures   *prometheus.CounterVec
	breaker    *circuit.Breaker
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithFailureCounter records failed calls per operation on the given vec.
func WithFailureCounter(vec *prometheus.CounterVec) Option {
	return func(c *Client) {
		c.failures = vec
	}
}

// WithBreaker short-circuits calls while the backend is in sustained
// failure, instead of letting every request wait out a timeout.
func WithBreaker(breaker *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = breaker
	}
}

// New constructs a backend client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// LoginResult is the credential pair issued by the backend at login.
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Login exchanges an identifier and secret for a credential pair.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChangePassword forwards a password change for the current session's user.
func (c *Client) ChangePassword(ctx context.Context, current, next, confirmation string) error {
	body := map[string]string{
		"currentPassword":      current,
		"newPassword":          next,
		"confirmationPassword": confirmation,
	}
	return c.do(ctx, "change_password", http.MethodPatch, "/auth/change-password", body, nil)
}

// ListRequests fetches the full directory for a kind. The backend does no
// status filtering; display filters are applied client-side.
func (c *Client) ListRequests(ctx context.Context, kind domain.RequestKind) ([]domain.FinancialRequest, error) {
	var requests []domain.FinancialRequest
	if err := c.do(ctx, "list_"+opSuffix(kind), http.MethodGet, kindPath(kind), nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ApproveRequest approves a single request of the given kind.
func (c *Client) ApproveRequest(ctx context.Context, kind domain.RequestKind, id domain.RequestID) error {
	path := fmt.Sprintf("%s/%s/approve", kindPath(kind), id)
	return c.do(ctx, "approve_"+opSuffix(kind), http.MethodPost, path, nil, nil)
}

// RejectRequest rejects a single request. A nil reason transmits no reason
// field at all; the deposit and withdrawal contracts are asymmetric on
// purpose and the engine owns that decision.
func (c *Client) RejectRequest(ctx context.Context, kind domain.RequestKind, id domain.RequestID, reason *string) error {
	path := fmt.Sprintf("%s/%s/reject", kindPath(kind), id)
	var body any
	if reason != nil {
		body = map[string]string{"reason": *reason}
	}
	return c.do(ctx, "reject_"+opSuffix(kind), http.MethodPost, path, body, nil)
}

// ListPendingUsers fetches accounts awaiting onboarding approval.
func (c *Client) ListPendingUsers(ctx context.Context) ([]domain.PendingUser, error) {
	var users []domain.PendingUser
	if err := c.do(ctx, "list_pending_users", http.MethodGet, "/admin/pending-users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ApproveUser approves a pending account.
func (c *Client) ApproveUser(ctx context.Context, id domain.UserID) error {
	return c.do(ctx, "approve_user", http.MethodPost, fmt.Sprintf("/admin/users/%s/approve", id), nil, nil)
}

// RejectUser rejects a pending account.
func (c *Client) RejectUser(ctx context.Context, id domain.UserID) error {
	return c.do(ctx, "reject_user", http.MethodPost, fmt.Sprintf("/admin/users/%s/reject", id), nil, nil)
}

func kindPath(kind domain.RequestKind) string {
	if kind == domain.KindWithdrawal {
		return "/admin/withdrawal-requests"
	}
	return "/admin/deposit-requests"
}

func opSuffix(kind domain.RequestKind) string {
	if kind == domain.KindWithdrawal {
		return "withdrawal"
	}
	return "deposit"
}

// errorEnvelope is the backend's failure shape. Message is optional.
type errorEnvelope struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "backend."+operation,
		trace.WithAttributes(
			attribute.String("backend.operation", operation),
			attribute.String("http.method", method),
		))
	defer span.End()

	if c.breaker != nil && c.breaker.IsOpen() {
		return c.fail(span, operation, dErrors.New(dErrors.CodeUnavailable, "trading backend temporarily unavailable"))
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return c.fail(span, operation, dErrors.Wrap(err, dErrors.CodeInternal, "encode backend request"))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return c.fail(span, operation, dErrors.Wrap(err, dErrors.CodeInternal, "build backend request"))
	}
	req.Header.Set("Content-Type", "application/json")
	if token := requestcontext.Credential(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordOutcome(false)
		return c.fail(span, operation, dErrors.Wrap(err, dErrors.CodeUnavailable, "trading backend unreachable"))
	}
	defer resp.Body.Close()
	c.recordOutcome(true)

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		return c.fail(span, operation, remoteError(resp, operation))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return c.fail(span, operation, dErrors.Wrap(err, dErrors.CodeInternal, "decode backend response"))
		}
	}

	span.SetStatus(otelcodes.Ok, "")
	return nil
}

// recordOutcome feeds the breaker. Only transport-level reachability counts;
// an HTTP error status is still a reachable backend.
func (c *Client) recordOutcome(ok bool) {
	if c.breaker == nil {
		return
	}
	var change circuit.Change
	if ok {
		_, change = c.breaker.RecordSuccess()
	} else {
		_, change = c.breaker.RecordFailure()
	}
	switch {
	case change.Opened:
		c.logger.Warn("backend circuit opened", "breaker", c.breaker.Name())
	case change.Closed:
		c.logger.Info("backend circuit closed", "breaker", c.breaker.Name())
	}
}

func (c *Client) fail(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, dErrors.MessageOf(err))
	if c.failures != nil {
		c.failures.WithLabelValues(operation).Inc()
	}
	c.logger.Warn("backend call failed", "operation", operation, "error", err)
	return err
}

// remoteError turns a non-2xx response into a domain error carrying the
// backend's human-readable message when it sent one.
func remoteError(resp *http.Response, operation string) error {
	var envelope errorEnvelope
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	message := envelope.Message
	if message == "" {
		message = fmt.Sprintf("the trading backend rejected %s", operation)
	}

	var code dErrors.Code
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		code = dErrors.CodeBadRequest
	case resp.StatusCode == http.StatusUnauthorized:
		code = dErrors.CodeUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		code = dErrors.CodeForbidden
	case resp.StatusCode == http.StatusNotFound:
		code = dErrors.CodeNotFound
	case resp.StatusCode == http.StatusConflict:
		code = dErrors.CodeConflict
	default:
		// Remote failures surface their message; CodeInternal would
		// suppress it at the HTTP edge.
		code = dErrors.CodeUnavailable
	}
	return dErrors.New(code, message)
}
