package session

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/felixgeelhaar/pimis/internal/domain"
	"github.com/felixgeelhaar/pimis/internal/errors"
)

// DecodeIdentity reads the subject out of an access token without verifying
// the signature. The client only needs the payload; the backend verifies.
//
// The identity claim wins; tokens without one carry a bare id in sub.
func DecodeIdentity(token string) (domain.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.Identity{}, errors.Wrap(errors.ErrCodeTokenMalformed, "access token payload cannot be decoded", err)
	}

	raw := claims["identity"]
	if raw == nil {
		raw = claims["sub"]
	}
	if raw == nil {
		return domain.Identity{}, errors.New(errors.ErrCodeTokenMalformed, "access token carries neither identity nor sub")
	}

	identity, err := domain.ParseIdentity(raw)
	if err != nil {
		return domain.Identity{}, errors.Wrap(errors.ErrCodeTokenMalformed, "access token subject is unusable", err)
	}
	return identity, nil
}
