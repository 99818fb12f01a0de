package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"courier-dispatch/internal/domain"
)

// ParseFromRequest extracts and validates a Bearer JWT from the request and
// returns the resolved actor. Requests without a header resolve to the
// public actor; a present-but-invalid token is an error.
func ParseFromRequest(r *http.Request, secret string) (domain.Actor, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return domain.Actor{Kind: domain.ActorPublic}, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return domain.Actor{}, errors.New("invalid authorization header")
	}
	return parseJWT(strings.TrimSpace(parts[1]), secret)
}

type actorClaims struct {
	Kind string `json:"kind"`
	ID   int64  `json:"actor_id"`
	jwt.RegisteredClaims
}

// parseJWT validates and extracts the actor claims from a token.
func parseJWT(tokenStr, secret string) (domain.Actor, error) {
	if secret == "" {
		return domain.Actor{}, errors.New("jwt secret is empty")
	}
	tok, err := jwt.ParseWithClaims(tokenStr, &actorClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return domain.Actor{}, err
	}
	c, _ := tok.Claims.(*actorClaims)
	if c == nil || c.ID == 0 {
		return domain.Actor{}, errors.New("invalid claims")
	}
	switch domain.ActorKind(c.Kind) {
	case domain.ActorOwner, domain.ActorDriver:
		return domain.Actor{Kind: domain.ActorKind(c.Kind), ID: c.ID}, nil
	}
	return domain.Actor{}, errors.New("invalid actor kind")
}

// IssueToken signs an actor token. Used by tooling and tests; identity
// management itself lives outside this service.
func IssueToken(actor domain.Actor, secret string, ttl time.Duration) (string, error) {
	claims := actorClaims{
		Kind: string(actor.Kind),
		ID:   actor.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
