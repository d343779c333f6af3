package mocks

import (
	"context"
	"errors"

	"github.com/godilite/eval-server/internal/approval"
)

// MockClaimsStore is a function-based mock of approval.ClaimsStore that
// also records every claims write it receives.
type MockClaimsStore struct {
	SetClaimsFunc func(ctx context.Context, uid string, claims approval.Claims) error

	Writes []ClaimsWrite
}

type ClaimsWrite struct {
	UID    string
	Claims approval.Claims
}

// SetClaims implements approval.ClaimsStore
func (m *MockClaimsStore) SetClaims(ctx context.Context, uid string, claims approval.Claims) error {
	m.Writes = append(m.Writes, ClaimsWrite{UID: uid, Claims: claims})
	if m.SetClaimsFunc != nil {
		return m.SetClaimsFunc(ctx, uid, claims)
	}
	return nil
}

// MockRequestStore is a function-based mock of approval.RequestStore.
type MockRequestStore struct {
	GetAccessRequestFunc    func(ctx context.Context, uid string) (approval.AccessRequest, error)
	SaveAccessRequestFunc   func(ctx context.Context, req approval.AccessRequest) error
	UpdateAccessRequestFunc func(ctx context.Context, uid string, d approval.Decision) error
	ListAccessRequestsFunc  func(ctx context.Context, status approval.Status, teamID string) ([]approval.AccessRequest, error)

	Reads   int
	Updates []approval.Decision
	Saved   []approval.AccessRequest
}

// GetAccessRequest implements approval.RequestStore
func (m *MockRequestStore) GetAccessRequest(ctx context.Context, uid string) (approval.AccessRequest, error) {
	m.Reads++
	if m.GetAccessRequestFunc != nil {
		return m.GetAccessRequestFunc(ctx, uid)
	}
	return approval.AccessRequest{}, approval.ErrNotFound
}

// SaveAccessRequest implements approval.RequestStore
func (m *MockRequestStore) SaveAccessRequest(ctx context.Context, req approval.AccessRequest) error {
	m.Saved = append(m.Saved, req)
	if m.SaveAccessRequestFunc != nil {
		return m.SaveAccessRequestFunc(ctx, req)
	}
	return nil
}

// UpdateAccessRequest implements approval.RequestStore
func (m *MockRequestStore) UpdateAccessRequest(ctx context.Context, uid string, d approval.Decision) error {
	m.Updates = append(m.Updates, d)
	if m.UpdateAccessRequestFunc != nil {
		return m.UpdateAccessRequestFunc(ctx, uid, d)
	}
	return nil
}

// ListAccessRequests implements approval.RequestStore
func (m *MockRequestStore) ListAccessRequests(ctx context.Context, status approval.Status, teamID string) ([]approval.AccessRequest, error) {
	if m.ListAccessRequestsFunc != nil {
		return m.ListAccessRequestsFunc(ctx, status, teamID)
	}
	return nil, errors.New("ListAccessRequestsFunc not implemented")
}

// Writes reports the total number of write calls across both stores.
func Writes(c *MockClaimsStore, r *MockRequestStore) int {
	return len(c.Writes) + len(r.Updates) + len(r.Saved)
}
