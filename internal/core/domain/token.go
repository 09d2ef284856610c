package domain

import "time"

// Token is an issued bearer token. It is never persisted.
type Token struct {
	Value     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
