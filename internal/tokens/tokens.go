package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var ErrUnknownKind = errors.New("unknown token kind")

type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Codec signs and verifies bearer tokens with a single process-wide
// HS256 secret. TTLs come from configuration, refresh included.
type Codec struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c *Codec) Issue(kind, subject string) (string, error) {
	var ttl time.Duration
	switch kind {
	case KindAccess:
		ttl = c.AccessTTL
	case KindRefresh:
		ttl = c.RefreshTTL
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	if kind == KindRefresh {
		claims.ID = uuid.NewString()
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.Secret)
}

// Decode returns an error for anything short of a well-formed, correctly
// signed, unexpired token. Callers must not distinguish the failure modes.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return c.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}
