package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "publicart-catalog"

// Token purposes. A magic link token cannot be used as a session.
const (
	PurposeSession   = "session"
	PurposeMagicLink = "magic_link"
)

type Claims struct {
	ActorToken string `json:"actor_token,omitempty"`
	EmailHash  string `json:"email_hash,omitempty"`
	Purpose    string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateJWT issues a session token for an actor. Expirations <= 0 fall back to 24h.
func GenerateJWT(secret, actorToken string, expiration time.Duration) (string, error) {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return sign(secret, Claims{ActorToken: actorToken, Purpose: PurposeSession}, expiration)
}

// GenerateMagicLinkToken issues a short-lived token bound to an email hash.
// Each token carries a unique ID so it can be consumed once.
func GenerateMagicLinkToken(secret, emailHash string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return sign(secret, Claims{EmailHash: emailHash, Purpose: PurposeMagicLink}, ttl)
}

func sign(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret string, tokenStr string) (*Claims, error) {
	return parse(secret, tokenStr, PurposeSession)
}

func ParseMagicLinkToken(secret string, tokenStr string) (*Claims, error) {
	claims, err := parse(secret, tokenStr, PurposeMagicLink)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("magic link token without id or expiry")
	}
	return claims, nil
}

func parse(secret, tokenStr, purpose string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Purpose != purpose {
		return nil, fmt.Errorf("token purpose %q, want %q", claims.Purpose, purpose)
	}
	return claims, nil
}
