package jwt

import (
	"fmt"
	"time"

	"projukti-support-backend/internal/env"

	"github.com/golang-jwt/jwt"
)

// Tokens carry a trailing role character so that a token minted for one
// audience can never be replayed against another, even if the secrets were
// ever shared. Agents are "1".
func appendRoleChar(token string, role Role) string {
	switch role {
	case RoleAgent:
		return token + "1"
	}
	return token
}

func expectedRoleChar(role Role) string {
	switch role {
	case RoleAgent:
		return "1"
	}
	return ""
}

// roleSecret resolves the signing secret lazily so that test binaries can set
// the environment before the first call instead of racing a package init.
func roleSecret(role Role) (string, error) {
	switch role {
	case RoleAgent:
		secret := env.Get(env.AgentSecretKey)
		if secret == "" {
			return "", fmt.Errorf("agent secret is not configured")
		}
		return secret, nil
	}
	return "", fmt.Errorf("invalid role specified")
}

func CreateToken(agent Agent, role Role, validUntil int64) (string, error) {
	secret, err := roleSecret(role)
	if err != nil {
		return "", err
	}

	if validUntil == 0 {
		validUntil = time.Now().Add(12 * time.Hour).Unix()
	}

	claims := jwt.MapClaims{
		"id":    agent.ID,
		"email": agent.Email,
		"name":  agent.Name,
		"exp":   validUntil,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return appendRoleChar(tokenString, role), nil
}

// ParseToken validates the role character, the signature and the expiry, then
// returns the claims.
func ParseToken(tokenString string, role Role) (jwt.MapClaims, error) {
	if len(tokenString) == 0 {
		return nil, fmt.Errorf("token string is empty")
	}

	if tokenString[len(tokenString)-1:] != expectedRoleChar(role) {
		return nil, fmt.Errorf("invalid role character in token")
	}
	tokenString = tokenString[:len(tokenString)-1]

	secret, err := roleSecret(role)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("unauthorized: %v", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid - unauthorized")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("claims of unauthorized type")
	}

	return claims, nil
}

// AgentFromToken is a convenience wrapper used by the websocket endpoints
// where only the identity matters.
func AgentFromToken(tokenString string) (Agent, error) {
	claims, err := ParseToken(tokenString, RoleAgent)
	if err != nil {
		return Agent{}, err
	}

	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if id == "" {
		return Agent{}, fmt.Errorf("token missing agent id")
	}

	return Agent{ID: id, Email: email, Name: name}, nil
}
