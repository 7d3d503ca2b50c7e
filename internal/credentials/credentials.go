// Package credentials abstracts the shared token/user-id store every API
// call reads. Implementations live under internal/infra.
package credentials

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"quiz-gateway/internal/domain"
)

// Store holds an opaque bearer token and the numeric identifier of the
// logged-in user. Mutation only happens synchronously inside response
// handlers, so implementations need no coordination beyond their own.
type Store interface {
	Token() (string, bool)
	SetToken(token string) error
	UserID() (int64, bool)
	SetUserID(id int64) error
	Clear() error
}

// ResolveUserID returns the stored user id, falling back to the bearer
// token's payload when none was stored separately. An unrecoverable id is a
// validation error: submissions must not proceed with a guessed identity.
func ResolveUserID(s Store) (int64, error) {
	if id, ok := s.UserID(); ok && id > 0 {
		return id, nil
	}
	if token, ok := s.Token(); ok {
		if id, ok := userIDFromToken(token); ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: no user id in store or token, log in again", domain.ErrValidation)
}

// userIDFromToken decodes the JWT payload without verifying the signature;
// verification is the server's job, we only need the identity claim.
func userIDFromToken(token string) (int64, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return 0, false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	for _, key := range []string{"user_id", "id", "sub"} {
		if id, ok := numericClaim(claims[key]); ok && id > 0 {
			return id, true
		}
	}
	return 0, false
}

func numericClaim(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
