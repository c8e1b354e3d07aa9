package session

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is who this daemon is syncing for, extracted from the session
// token the login flow handed us. Roles mirror the backend's actor kinds.
type Identity struct {
	ActorID int64
	Role    string
}

const (
	RoleCustomer    = "customer"
	RoleHousekeeper = "housekeeper"
)

// FromToken extracts the actor identity from a session JWT. The token was
// issued and verified by the backend's auth service; this process only needs
// the claims, so the signature is not re-verified here.
func FromToken(token string) (Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("parse session token: %w", err)
	}

	id, err := actorID(claims)
	if err != nil {
		return Identity{}, err
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = RoleCustomer
	}

	return Identity{ActorID: id, Role: role}, nil
}

// actorID reads the actor id claim, which the backend writes as "id" (number
// or numeric string) on some tokens and standard "sub" on others.
func actorID(claims jwt.MapClaims) (int64, error) {
	for _, key := range []string{"id", "sub"} {
		v, ok := claims[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), nil
		case string:
			id, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parse actor id claim %q: %w", n, err)
			}
			return id, nil
		}
	}
	return 0, fmt.Errorf("session token has no actor id claim")
}
