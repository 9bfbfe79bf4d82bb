// Package auth issues and verifies the bearer tokens that identify API users.
package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// Issuer is the issuer of every access token.
	Issuer = "wingman"
	// KeyID is the key id of the current signing secret.
	KeyID = "v1"
	// AccessTokenAudienceName is the audience of access tokens.
	AccessTokenAudienceName = "user.access-token"
	// DefaultAccessTokenDuration is used when no ttl is given.
	DefaultAccessTokenDuration = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid access token")

// AccessTokenClaims are the claims carried by an access token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the user id stored in the subject.
func (c *AccessTokenClaims) UserID() (int32, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 32)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(ErrInvalidToken, "bad subject %q", c.Subject)
	}
	return int32(id), nil
}

// GenerateAccessToken signs a token for userID valid for ttl.
func GenerateAccessToken(userID int32, ttl time.Duration, secret []byte) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("signing secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenDuration
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.FormatInt(int64(userID), 10),
			Audience:  jwt.ClaimStrings{AccessTokenAudienceName},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = KeyID

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "failed to sign access token")
	}
	return signed, expiresAt, nil
}

// ParseAccessToken verifies tokenString and returns its claims.
func ParseAccessToken(tokenString string, secret []byte) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, errors.Errorf("unexpected access token signing method=%v, expect %v", t.Header["alg"], jwt.SigningMethodHS256.Name)
		}
		if kid, ok := t.Header["kid"].(string); ok && kid == KeyID {
			return secret, nil
		}
		return nil, errors.Errorf("unexpected access token kid=%v", t.Header["kid"])
	},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AccessTokenAudienceName),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	return claims, nil
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header.
func ExtractBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
