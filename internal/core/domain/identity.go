package domain

import (
	"slices"
	"strings"
	"time"
)

const (
	RoleAdmin  = "ADMIN"
	RoleReader = "READER"
	RoleUser   = "USER"

	// AuthorityPrefix is prepended to a bare role name to form the authority
	// string exposed to clients and matched by route requirements.
	AuthorityPrefix = "ROLE_"
)

// Identity is a stored account: a unique username, its password hash and the
// bare role names granted to it.
type Identity struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Roles        []string  `json:"roles" bson:"roles"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Authority converts a role name, bare or already prefixed, into its
// authority form ("ADMIN" -> "ROLE_ADMIN").
func Authority(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	if strings.HasPrefix(role, AuthorityPrefix) {
		return role
	}
	return AuthorityPrefix + role
}

// RoleFromAuthority is the inverse of Authority ("ROLE_ADMIN" -> "ADMIN").
func RoleFromAuthority(authority string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(authority)), AuthorityPrefix)
}

// NormalizeRoles returns the bare, upper-cased, de-duplicated and sorted form
// of roles. Empty entries are dropped.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = RoleFromAuthority(r)
		if r == "" || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}
