// Package mocks provides generated mock implementations for the auth ports.
//
// This package uses go.uber.org/mock (gomock) for type-safe mocks of port
// interfaces; hand-written doubles with simpler defaults live in
// internal/mocks/auth.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	dir := mocks.NewMockDirectoryClient(ctrl)
//	dir.EXPECT().Profile(gomock.Any(), gomock.Any()).Return(profile, nil)
package mocks

// Generate mock for DirectoryClient interface from internal/ports.
// This creates MockDirectoryClient with methods for all DirectoryClient
// interface methods: Profile, GroupsWithRoles, SendMessage
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=directory_client_mock.go github.com/oakmont/portal-api/internal/ports DirectoryClient
