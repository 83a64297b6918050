package transport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/syntheaweb/synthea-client/internal/ports"
)

// SessionExpiredNotice is the single user-facing message emitted on a forced logout.
const SessionExpiredNotice = "Your session has expired. Please log in again."

// DefaultCooldown suppresses duplicate forced logouts from requests that were
// already in flight when the first failure landed.
const DefaultCooldown = 3 * time.Second

// InterceptorOptions groups dependencies for the failure interceptor.
type InterceptorOptions struct {
	Base      http.RoundTripper
	Store     ports.TokenStore
	Navigator ports.Navigator
	Notifier  ports.Notifier
	Cooldown  time.Duration
	Logger    *slog.Logger
}

// Interceptor observes every response from every client built on top of it.
// On an authentication-failure signal (401/403) it clears the token store,
// surfaces one notice, and forces navigation to the login view. It is
// deliberately independent of the session manager: requests can race ahead of
// the manager's bootstrap check, and the interceptor must still catch them.
type Interceptor struct {
	base      http.RoundTripper
	store     ports.TokenStore
	navigator ports.Navigator
	notifier  ports.Notifier
	cooldown  time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	lastTrip time.Time
}

var _ http.RoundTripper = (*Interceptor)(nil)

// NewInterceptor constructs the interceptor. Base defaults to
// http.DefaultTransport and Cooldown to DefaultCooldown.
func NewInterceptor(opts InterceptorOptions) *Interceptor {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interceptor{
		base:      base,
		store:     opts.Store,
		navigator: opts.Navigator,
		notifier:  opts.Notifier,
		cooldown:  cooldown,
		logger:    logger,
	}
}

// RoundTrip implements http.RoundTripper. The response is passed through
// untouched; callers still see the 401/403 and classify it themselves.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := i.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		i.forceLogout(req.Context())
	}

	return resp, nil
}

// forceLogout performs the coordinated logout exactly once per cooldown window.
func (i *Interceptor) forceLogout(ctx context.Context) {
	// Failures on the login view are credential errors, not expired sessions.
	if i.navigator.Current() == ports.ViewLogin {
		return
	}

	i.mu.Lock()
	if !i.lastTrip.IsZero() && time.Since(i.lastTrip) < i.cooldown {
		i.mu.Unlock()
		return
	}
	i.lastTrip = time.Now()
	i.mu.Unlock()

	if err := i.store.Clear(); err != nil {
		i.logger.ErrorContext(ctx, "clear token store on forced logout", "error", err)
	}

	i.notifier.Notify(SessionExpiredNotice)
	i.navigator.NavigateTo(ports.ViewLogin)
}
