package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/blogapi/blog-service/internal/core/domain"
	"github.com/blogapi/blog-service/internal/core/ports"
)

// AccessGuard resolves request principals. It keeps no per-request state;
// roles are read from the credential store on every call so that role changes
// and deletions apply to tokens that are already in circulation.
type AccessGuard struct {
	store  ports.CredentialStore
	codec  ports.TokenCodec
	now    func() time.Time
	logger zerolog.Logger
}

func NewAccessGuard(store ports.CredentialStore, codec ports.TokenCodec, logger zerolog.Logger) *AccessGuard {
	return &AccessGuard{store: store, codec: codec, now: time.Now, logger: logger}
}

func (g *AccessGuard) Authenticate(ctx context.Context, authorization string) (domain.Principal, error) {
	if strings.TrimSpace(authorization) == "" {
		return domain.Anonymous, nil
	}

	raw, ok := bearerToken(authorization)
	if !ok {
		return domain.Anonymous, fmt.Errorf("%w: malformed authorization header", domain.ErrUnauthenticated)
	}

	subject, err := g.codec.Verify(raw, g.now().UTC())
	if err != nil {
		g.logger.Debug().Err(err).Msg("bearer token rejected")
		return domain.Anonymous, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	identity, err := g.store.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			g.logger.Info().Str("username", subject).Msg("token subject no longer exists")
			return domain.Anonymous, fmt.Errorf("%w: unknown subject", domain.ErrUnauthenticated)
		}
		return domain.Anonymous, storeErr("resolve principal", err)
	}

	return domain.NewPrincipal(identity.Username, identity.Roles), nil
}

// Authorize succeeds when p is authenticated and holds any of required.
// With no requirement, authentication alone suffices.
func (g *AccessGuard) Authorize(p domain.Principal, required ...string) error {
	if !p.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if len(required) == 0 {
		return nil
	}
	for _, r := range required {
		if p.HasAuthority(r) {
			return nil
		}
	}
	return domain.ErrForbidden
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
