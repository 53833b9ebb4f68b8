// Package identity verifies bearer tokens issued by the identity provider and
// carries the resulting user through request contexts.
package identity

import (
	"context"
	"strings"
)

// User is the signed-in shopper or admin behind a request.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Admin       bool   `json:"admin"`
}

type ctxKey struct{}

// WithUser stores u on ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the current user, or nil for anonymous requests.
func FromContext(ctx context.Context) *User {
	if ctx == nil {
		return nil
	}
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}

// AdminPolicy grants admin rights to an allow-list of emails in addition to
// the admin claim.
type AdminPolicy struct {
	emails map[string]struct{}
}

func NewAdminPolicy(emails []string) AdminPolicy {
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			set[e] = struct{}{}
		}
	}
	return AdminPolicy{emails: set}
}

// IsAdmin reports whether the claim or the allow-list marks the user as admin.
func (p AdminPolicy) IsAdmin(email string, claim bool) bool {
	if claim {
		return true
	}
	_, ok := p.emails[normalizeEmail(email)]
	return ok && email != ""
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
