// Package session resolves the acting user once per request and carries the
// result into the parts of the engine that filter by role.
package session

import (
	"context"
	"errors"

	"holdingboard/internal/repo"
)

// Session is the viewer identity computed once from the profiles table and
// passed explicitly wherever role checks happen.
type Session struct {
	Email      string  `json:"email"`
	Name       string  `json:"name,omitempty"`
	Admin      bool    `json:"admin"`
	ProviderID *string `json:"provider_id,omitempty"`
}

// Resolve loads the profile behind an email. Unknown emails get a plain
// non-admin session rather than an error so first-time users can still see
// their own requests.
func Resolve(ctx context.Context, r repo.Repo, email string) (Session, error) {
	if email == "" {
		return Session{}, errors.New("email required")
	}
	p, err := r.GetProfile(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return Session{Email: email}, nil
	}
	if err != nil {
		return Session{}, err
	}
	return Session{
		Email:      p.Email,
		Name:       p.Name,
		Admin:      p.Admin,
		ProviderID: p.ProviderID,
	}, nil
}
