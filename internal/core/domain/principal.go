package domain

import (
	"context"
	"slices"
)

// Principal is the request-scoped view of the caller. It is only ever built by
// the access guard from a verified token plus a fresh credential lookup.
type Principal struct {
	Username string
	Roles    []string
}

// Anonymous is the principal of a request that carried no usable token.
var Anonymous = Principal{}

func NewPrincipal(username string, roles []string) Principal {
	return Principal{Username: username, Roles: NormalizeRoles(roles)}
}

func (p Principal) Authenticated() bool {
	return p.Username != ""
}

// HasAuthority reports whether p holds required, given either as a bare role
// or as an authority string.
func (p Principal) HasAuthority(required string) bool {
	want := RoleFromAuthority(required)
	return slices.Contains(p.Roles, want)
}

// Authorities returns the sorted authority strings of p.
func (p Principal) Authorities() []string {
	out := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		out = append(out, Authority(r))
	}
	slices.Sort(out)
	return out
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or Anonymous.
func PrincipalFrom(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey{}).(Principal); ok {
		return p
	}
	return Anonymous
}
