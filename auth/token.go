// Package auth issues and validates the bearer tokens SSE clients
// present to the gateway.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims binds a token to one agent inside one workspace.
type Claims struct {
	AgentID     string `json:"agentId"`
	WorkspaceID string `json:"workspaceId"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 token for the agent.
func GenerateToken(secret []byte, agentID, workspaceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		AgentID:     agentID,
		WorkspaceID: workspaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "agent-hub",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses the token and checks its signature and expiry.
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}
