package tokenstore

import (
	"context"
	"errors"
	"time"

	"libraryapi/pkg/circuitbreaker"
	"libraryapi/pkg/logger"
)

// FailoverStore writes every revocation to a local store and to a shared
// primary behind a circuit breaker. Lookups answer from the local store
// first and skip the primary while the breaker is open, so an outage of the
// primary degrades to per-process revocation instead of failing requests.
type FailoverStore struct {
	primary RevocationStore
	local   RevocationStore
	breaker *circuitbreaker.CircuitBreaker
	logger  logger.Logger
}

func NewFailoverStore(primary, local RevocationStore, breaker *circuitbreaker.CircuitBreaker, logger logger.Logger) *FailoverStore {
	return &FailoverStore{
		primary: primary,
		local:   local,
		breaker: breaker,
		logger:  logger,
	}
}

func (s *FailoverStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := s.local.Revoke(ctx, tokenID, expiresAt); err != nil {
		return err
	}

	err := s.breaker.Execute(func() error {
		return s.primary.Revoke(ctx, tokenID, expiresAt)
	})
	if err != nil {
		s.degraded(ctx, "revoke", err)
	}
	return nil
}

func (s *FailoverStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	revoked, err := s.local.IsRevoked(ctx, tokenID)
	if err != nil || revoked {
		return revoked, err
	}

	err = s.breaker.Execute(func() error {
		var perr error
		revoked, perr = s.primary.IsRevoked(ctx, tokenID)
		return perr
	})
	if err != nil {
		s.degraded(ctx, "is_revoked", err)
		return false, nil
	}
	return revoked, nil
}

func (s *FailoverStore) degraded(ctx context.Context, op string, err error) {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return
	}
	s.logger.WarnContext(ctx, "Revocation store unavailable, using local store", map[string]interface{}{
		"operation": op,
		"breaker":   s.breaker.Name(),
		"error":     err.Error(),
	})
}
