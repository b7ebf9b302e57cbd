package entitlement

import (
	"context"
	"errors"
	"testing"
)

func TestCheckAccess(t *testing.T) {
	tests := []struct {
		name                  string
		isOwned               bool
		isFree                bool
		subscriptionActive    bool
		subscriptionAvailable bool
		want                  Access
	}{
		{
			name:    "owned paid content",
			isOwned: true,
			want:    Access{CanAccess: true},
		},
		{
			name:                  "owned content ignores subscription state",
			isOwned:               true,
			isFree:                true,
			subscriptionAvailable: true,
			want:                  Access{CanAccess: true},
		},
		{
			name: "non-owned paid content",
			want: Access{},
		},
		{
			name:                  "non-owned paid content with active subscription",
			subscriptionActive:    true,
			subscriptionAvailable: true,
			want:                  Access{},
		},
		{
			name:   "free content without subscription offering",
			isFree: true,
			want:   Access{CanAccess: true},
		},
		{
			name:                  "free content with active subscription",
			isFree:                true,
			subscriptionActive:    true,
			subscriptionAvailable: true,
			want:                  Access{CanAccess: true},
		},
		{
			name:                  "free content needs subscription",
			isFree:                true,
			subscriptionAvailable: true,
			want:                  Access{NeedsSubscription: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckAccess(tt.isOwned, tt.isFree, tt.subscriptionActive, tt.subscriptionAvailable)
			if got != tt.want {
				t.Errorf("CheckAccess(%v, %v, %v, %v) = %+v, want %+v",
					tt.isOwned, tt.isFree, tt.subscriptionActive, tt.subscriptionAvailable, got, tt.want)
			}
		})
	}
}

// countingSource records lookups so caching behavior can be asserted.
type countingSource struct {
	owned map[string]bool
	err   error
	calls int
}

func (s *countingSource) IsOwned(_ context.Context, id string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.owned[id], nil
}

func TestResolver_CachesOwnership(t *testing.T) {
	src := &countingSource{owned: map[string]bool{"bk-1": true}}
	r := NewResolver(src, Deployment{})
	ctx := context.Background()

	for range 3 {
		if !r.IsOwned(ctx, "bk-1") {
			t.Fatal("IsOwned(bk-1) = false, want true")
		}
	}
	if src.calls != 1 {
		t.Errorf("source consulted %d times, want 1", src.calls)
	}
}

func TestResolver_CachesNegativeResult(t *testing.T) {
	src := &countingSource{}
	r := NewResolver(src, Deployment{})
	ctx := context.Background()

	r.IsOwned(ctx, "bk-1")
	r.IsOwned(ctx, "bk-1")

	if src.calls != 1 {
		t.Errorf("source consulted %d times, want 1", src.calls)
	}
}

func TestResolver_ErrorNotCached(t *testing.T) {
	src := &countingSource{owned: map[string]bool{"bk-1": true}, err: errors.New("backend down")}
	r := NewResolver(src, Deployment{})
	ctx := context.Background()

	if r.IsOwned(ctx, "bk-1") {
		t.Error("IsOwned = true during backend failure, want false")
	}

	// The backend recovers; the failure must not have been cached.
	src.err = nil
	if !r.IsOwned(ctx, "bk-1") {
		t.Error("IsOwned = false after recovery, want true")
	}
	if src.calls != 2 {
		t.Errorf("source consulted %d times, want 2", src.calls)
	}
}

func TestResolver_Check(t *testing.T) {
	r := NewResolver(Static{"owned": true}, Deployment{SubscriptionAvailable: true})
	ctx := context.Background()

	if got := r.Check(ctx, "owned", false); !got.CanAccess {
		t.Errorf("Check(owned) = %+v, want access", got)
	}
	if got := r.Check(ctx, "other", false); got.CanAccess {
		t.Errorf("Check(other, paid) = %+v, want no access", got)
	}
	if got := r.Check(ctx, "other", true); !got.NeedsSubscription {
		t.Errorf("Check(other, free) = %+v, want NeedsSubscription", got)
	}
}

func TestStatic_IsOwned(t *testing.T) {
	s := Static{"bk-1": true}

	owned, err := s.IsOwned(context.Background(), "bk-1")
	if err != nil || !owned {
		t.Errorf("IsOwned(bk-1) = %v, %v, want true, nil", owned, err)
	}
	owned, err = s.IsOwned(context.Background(), "bk-2")
	if err != nil || owned {
		t.Errorf("IsOwned(bk-2) = %v, %v, want false, nil", owned, err)
	}
}
