package session

import (
	"context"

	"foodorder/internal/domain"

	"golang.org/x/sync/singleflight"
)

// SharedLookup collapses concurrent lookups of the same profile, which happens
// when one account restores several client sessions at once.
type SharedLookup struct {
	next  ProfileLookup
	group singleflight.Group
}

func NewSharedLookup(next ProfileLookup) *SharedLookup {
	return &SharedLookup{next: next}
}

func (l *SharedLookup) GetProfile(ctx context.Context, uid string) (*domain.Profile, error) {
	// The shared call must outlive any one caller: a superseded gate must not
	// cancel the lookup other sessions are waiting on.
	ch := l.group.DoChan(uid, func() (any, error) {
		return l.next.GetProfile(context.WithoutCancel(ctx), uid)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	profile, _ := res.Val.(*domain.Profile)
	if profile == nil {
		return nil, domain.ErrNotFound
	}
	out := *profile
	return &out, nil
}
