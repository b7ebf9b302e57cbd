// Package entitlement decides whether a user may play given content.
package entitlement

import (
	"context"
	"sync"
)

// Access is the result of an entitlement check.
type Access struct {
	CanAccess         bool
	NeedsSubscription bool
}

// CheckAccess is the access rule shared by chapter navigation and the UI.
// It is a pure function: the same four inputs always produce the same result.
//
// Owned content is always accessible. Non-owned paid content is never
// accessible here (purchasing is handled elsewhere). Non-owned free content
// is accessible when the deployment has no subscription offering, or when a
// subscription is active; otherwise it requires subscribing.
func CheckAccess(isOwned, isFree, subscriptionActive, subscriptionAvailable bool) Access {
	if isOwned {
		return Access{CanAccess: true}
	}
	if !isFree {
		return Access{}
	}
	if !subscriptionAvailable || subscriptionActive {
		return Access{CanAccess: true}
	}
	return Access{NeedsSubscription: true}
}

// OwnershipSource reports whether the current user owns an audiobook.
type OwnershipSource interface {
	IsOwned(ctx context.Context, audiobookID string) (bool, error)
}

// Deployment carries the subscription flags of this installation.
type Deployment struct {
	SubscriptionAvailable bool
	SubscriptionActive    bool
}

// Resolver caches ownership lookups for the lifetime of a session. Lookup
// failures are treated as not-owned and are not cached, so a transient
// backend error does not lock a user out permanently.
type Resolver struct {
	source     OwnershipSource
	deployment Deployment

	mu    sync.Mutex
	owned map[string]bool
}

// NewResolver creates a resolver over the given ownership source.
func NewResolver(source OwnershipSource, dep Deployment) *Resolver {
	return &Resolver{
		source:     source,
		deployment: dep,
		owned:      make(map[string]bool),
	}
}

// IsOwned returns the cached ownership flag, consulting the source once per
// audiobook.
func (r *Resolver) IsOwned(ctx context.Context, audiobookID string) bool {
	r.mu.Lock()
	if owned, ok := r.owned[audiobookID]; ok {
		r.mu.Unlock()
		return owned
	}
	r.mu.Unlock()

	owned, err := r.source.IsOwned(ctx, audiobookID)
	if err != nil {
		return false
	}

	r.mu.Lock()
	r.owned[audiobookID] = owned
	r.mu.Unlock()
	return owned
}

// Check combines the cached ownership flag with the deployment flags.
func (r *Resolver) Check(ctx context.Context, audiobookID string, isFree bool) Access {
	return CheckAccess(
		r.IsOwned(ctx, audiobookID),
		isFree,
		r.deployment.SubscriptionActive,
		r.deployment.SubscriptionAvailable,
	)
}

// Static is an OwnershipSource backed by a fixed set, used for local
// libraries and tests.
type Static map[string]bool

func (s Static) IsOwned(_ context.Context, audiobookID string) (bool, error) {
	return s[audiobookID], nil
}
