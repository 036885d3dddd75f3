package client

import (
	"context"
	"errors"

	"github.com/quillpress/quillpress/pkg/domain"
)

// Revalidator checks a stored session against the server and tells the
// server about logouts. It satisfies session.Revalidator and session.Notifier.
type Revalidator struct {
	base *Client
}

func NewRevalidator(baseURL string) *Revalidator {
	return &Revalidator{base: New(baseURL, "")}
}

// Revalidate returns the server's current record for rec.
func (r *Revalidator) Revalidate(ctx context.Context, rec *domain.User) (*domain.User, error) {
	if rec == nil || rec.Email == "" {
		return nil, errors.New("client.Revalidate: record has no email")
	}
	return r.base.WithToken(rec.Token).WhoAmI(ctx, rec.Email)
}

// NotifyLogout revokes rec's access token on the server.
func (r *Revalidator) NotifyLogout(ctx context.Context, rec *domain.User) error {
	if rec == nil || rec.Token == "" {
		return nil
	}
	return r.base.WithToken(rec.Token).Logout(ctx, "")
}
