package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func (m *managerImpl) generate(scope, userID, sessionID string, ttl time.Duration) (string, *Claims, error) {
	if userID == "" {
		return "", nil, ErrMissingSubject
	}
	now := m.now()
	claims := &Claims{
		Scope:     scope,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

func (m *managerImpl) GenerateSessionToken(userID, sessionID string) (string, *Claims, error) {
	return m.generate(ScopeSession, userID, sessionID, m.sessionTTL)
}

func (m *managerImpl) GenerateStreamToken(userID, sessionID string) (string, *Claims, error) {
	return m.generate(ScopeStream, userID, sessionID, m.streamTTL)
}

func (m *managerImpl) StreamTTL() time.Duration { return m.streamTTL }

func (m *managerImpl) verify(tokenString, scope string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if claims.Scope != scope {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongScope, claims.Scope, scope)
	}
	return claims, nil
}

func (m *managerImpl) VerifySessionToken(token string) (*Claims, error) {
	return m.verify(token, ScopeSession)
}

func (m *managerImpl) VerifyStreamToken(token string) (*Claims, error) {
	return m.verify(token, ScopeStream)
}
