package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tradedesk/pkg/domain"
)

// Oracle answers "is this session authenticated" and "what is its role"
// from stored credentials, without any network call.
type Oracle struct {
	store        Store
	logger       *slog.Logger
	now          func() time.Time
	purgeCounter prometheus.Counter
}

// Option configures an Oracle.
type Option func(*Oracle)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Oracle) {
		o.logger = logger
	}
}

// WithClock overrides wall-clock time, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(o *Oracle) {
		o.now = now
	}
}

// WithPurgeCounter records expiry purges on the given counter.
func WithPurgeCounter(counter prometheus.Counter) Option {
	return func(o *Oracle) {
		o.purgeCounter = counter
	}
}

// NewOracle constructs a session oracle over the given credential store.
func NewOracle(store Store, opts ...Option) (*Oracle, error) {
	if store == nil {
		return nil, fmt.Errorf("credential store is required")
	}

	oracle := &Oracle{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(oracle)
	}
	return oracle, nil
}

// IsAuthenticated reports whether the session holds a credential that
// decodes and has not expired. Detecting an expired credential purges both
// storage slots as a side effect; the purge is idempotent, so repeated
// checks of a dead session stay cheap and safe.
func (o *Oracle) IsAuthenticated(ctx context.Context, key string) bool {
	creds, err := o.store.Load(ctx, key)
	if err != nil {
		return false
	}

	claims, err := DecodeClaims(creds.AccessToken)
	if err != nil {
		o.logger.WarnContext(ctx, "stored credential does not decode", "error", err)
		return false
	}

	if claims.Expired(o.now()) {
		if err := o.store.Clear(ctx, key); err != nil {
			o.logger.ErrorContext(ctx, "failed to purge expired session", "error", err)
		}
		if o.purgeCounter != nil {
			o.purgeCounter.Inc()
		}
		return false
	}

	return true
}

// CurrentRole returns the session's normalized role, or RoleUnknown when no
// decodable credential exists. Expiry is IsAuthenticated's concern; callers
// gate on authentication before trusting the role.
func (o *Oracle) CurrentRole(ctx context.Context, key string) domain.Role {
	creds, err := o.store.Load(ctx, key)
	if err != nil {
		return domain.RoleUnknown
	}

	claims, err := DecodeClaims(creds.AccessToken)
	if err != nil {
		return domain.RoleUnknown
	}
	return claims.Role()
}
