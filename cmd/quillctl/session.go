package main

import (
	"context"

	"github.com/quillpress/quillpress/pkg/client"
	"github.com/quillpress/quillpress/pkg/domain"
	"github.com/quillpress/quillpress/pkg/logger"
	"github.com/quillpress/quillpress/pkg/session"
)

// renewingRevalidator swaps the stored refresh token for a new access token
// before asking the server who the session belongs to, so a session outlives
// the access token TTL.
type renewingRevalidator struct {
	api   *client.Client
	check *client.Revalidator
	st    session.Storage
}

func (r *renewingRevalidator) Revalidate(ctx context.Context, rec *domain.User) (*domain.User, error) {
	refresh, ok, err := r.st.Get(refreshKey)
	if err != nil {
		return nil, err
	}
	if ok && refresh != "" {
		tok, err := r.api.Refresh(ctx, refresh)
		if err != nil {
			return nil, err
		}
		rec.Token = tok
	}
	u, err := r.check.Revalidate(ctx, rec)
	if err != nil {
		return nil, err
	}
	if rec.Token != "" {
		u.Token = rec.Token
	}
	return u, nil
}

// manager builds the session manager for a command. The refresh token only
// lives as long as the session it belongs to.
func (a *app) manager(opts ...session.Option) (*session.Manager, session.Storage) {
	st := a.storage()
	m := session.NewManager(st, opts...)
	m.Subscribe(func(snap session.Snapshot) {
		if snap.State != session.Anonymous {
			return
		}
		if err := st.Remove(refreshKey); err != nil {
			logger.Warnf("quillctl: remove refresh token: %v", err)
		}
	})
	return m, st
}

func (a *app) revalidator() *renewingRevalidator {
	return &renewingRevalidator{
		api:   client.New(a.apiURL(), ""),
		check: client.NewRevalidator(a.apiURL()),
		st:    a.storage(),
	}
}
