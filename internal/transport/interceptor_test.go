package transport

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/syntheaweb/synthea-client/internal/adapters/memstore"
	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	"github.com/syntheaweb/synthea-client/internal/mocks"
	sessionmocks "github.com/syntheaweb/synthea-client/internal/mocks/session"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func staticStatus(status int) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader("")),
			Request:    req,
		}, nil
	})
}

func newTestRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://backend.test/api/runs", nil)
	require.NoError(t, err)
	return req
}

func TestInterceptor_PassesSuccessThrough(t *testing.T) {
	store := memstore.New()
	nav := sessionmocks.NewRecordingNavigator(ports.ViewRuns)
	notifier := &sessionmocks.RecordingNotifier{}

	interceptor := NewInterceptor(InterceptorOptions{
		Base:      staticStatus(http.StatusOK),
		Store:     store,
		Navigator: nav,
		Notifier:  notifier,
	})

	resp, err := interceptor.RoundTrip(newTestRequest(t))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, nav.NavigationCount())
	assert.Zero(t, notifier.NoticeCount())
}

func TestInterceptor_ForcedLogoutOnAuthFailure(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		store := memstore.New()
		require.NoError(t, store.Set("tok-stale", domainauth.RoleUser))
		nav := sessionmocks.NewRecordingNavigator(ports.ViewRuns)
		notifier := &sessionmocks.RecordingNotifier{}

		interceptor := NewInterceptor(InterceptorOptions{
			Base:      staticStatus(status),
			Store:     store,
			Navigator: nav,
			Notifier:  notifier,
		})

		resp, err := interceptor.RoundTrip(newTestRequest(t))
		require.NoError(t, err)
		resp.Body.Close()

		// The failing status still reaches the caller.
		assert.Equal(t, status, resp.StatusCode)

		_, ok, storeErr := store.Token()
		require.NoError(t, storeErr)
		assert.False(t, ok, "token must be purged")

		require.Equal(t, 1, nav.NavigationCount())
		assert.Equal(t, ports.ViewLogin, nav.Current())
		require.Equal(t, 1, notifier.NoticeCount())
		assert.Equal(t, SessionExpiredNotice, notifier.Messages[0])
	}
}

func TestInterceptor_CooldownSuppressesDuplicates(t *testing.T) {
	store := memstore.New()
	nav := sessionmocks.NewRecordingNavigator(ports.ViewRuns)
	notifier := &sessionmocks.RecordingNotifier{}

	interceptor := NewInterceptor(InterceptorOptions{
		Base:      staticStatus(http.StatusUnauthorized),
		Store:     store,
		Navigator: nav,
		Notifier:  notifier,
		Cooldown:  time.Minute,
	})

	for i := 0; i < 3; i++ {
		resp, err := interceptor.RoundTrip(newTestRequest(t))
		require.NoError(t, err)
		resp.Body.Close()
		// Navigating moved us to the login view; move back to simulate a
		// stale in-flight request landing on a protected view.
		nav.NavigateTo(ports.ViewRuns)
	}

	assert.Equal(t, 1, notifier.NoticeCount(), "only the first failure surfaces a notice")
}

func TestInterceptor_ConcurrentFailuresProduceOneLogout(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Set("tok-stale", domainauth.RoleUser))
	nav := sessionmocks.NewRecordingNavigator(ports.ViewRuns)
	notifier := &sessionmocks.RecordingNotifier{}

	interceptor := NewInterceptor(InterceptorOptions{
		Base:      staticStatus(http.StatusUnauthorized),
		Store:     store,
		Navigator: nav,
		Notifier:  notifier,
		Cooldown:  time.Minute,
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := interceptor.RoundTrip(newTestRequest(t))
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	// One of the racing failures may land after the first navigation moved us
	// to the login view, where logouts are suppressed anyway. Either way, at
	// most one notice and one redirect.
	assert.Equal(t, 1, notifier.NoticeCount())
	assert.Equal(t, 1, nav.NavigationCount())
}

func TestInterceptor_NoLogoutOnLoginView(t *testing.T) {
	store := memstore.New()
	nav := sessionmocks.NewRecordingNavigator(ports.ViewLogin)
	notifier := &sessionmocks.RecordingNotifier{}

	interceptor := NewInterceptor(InterceptorOptions{
		Base:      staticStatus(http.StatusUnauthorized),
		Store:     store,
		Navigator: nav,
		Notifier:  notifier,
	})

	resp, err := interceptor.RoundTrip(newTestRequest(t))
	require.NoError(t, err)
	resp.Body.Close()

	// A 401 on the login view is a wrong password, not an expired session.
	assert.Zero(t, nav.NavigationCount())
	assert.Zero(t, notifier.NoticeCount())
}

func TestInterceptor_CollaboratorCalls(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := memstore.New()

	nav := mocks.NewMockNavigator(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)

	nav.EXPECT().Current().Return(ports.ViewRuns)
	notifier.EXPECT().Notify(SessionExpiredNotice)
	nav.EXPECT().NavigateTo(ports.ViewLogin)

	interceptor := NewInterceptor(InterceptorOptions{
		Base:      staticStatus(http.StatusForbidden),
		Store:     store,
		Navigator: nav,
		Notifier:  notifier,
	})

	resp, err := interceptor.RoundTrip(newTestRequest(t))
	require.NoError(t, err)
	resp.Body.Close()
}
