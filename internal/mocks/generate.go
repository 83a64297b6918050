// Package mocks provides mock implementations for testing the session core.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the navigation and notice ports. Hand-written doubles for the session API and
// token store live in internal/mocks/session; they are lightweight and suitable
// for unit tests without codegen.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	nav := mocks.NewMockNavigator(ctrl)
//	nav.EXPECT().Current().Return(ports.ViewRuns).AnyTimes()
package mocks

// Generate mocks for the Navigator and Notifier interfaces from internal/ports.
// These are the collaborators the global failure interceptor drives on a forced logout.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=navigation_mock.go github.com/syntheaweb/synthea-client/internal/ports Navigator,Notifier
