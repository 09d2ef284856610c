package service

import (
	"errors"
	"fmt"

	"github.com/blogapi/blog-service/internal/core/domain"
)

// storeErr wraps a repository failure. Domain outcomes keep their identity;
// anything else is reported as domain.ErrStorageUnavailable.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrIdentityNotFound),
		errors.Is(err, domain.ErrIdentityExists),
		errors.Is(err, domain.ErrStorageUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}

func requireAuthority(caller domain.Principal, authority string) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !caller.HasAuthority(authority) {
		return domain.ErrForbidden
	}
	return nil
}
