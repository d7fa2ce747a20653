// Package identitysvc verifies the bearer tokens minted by the identity
// provider. Tokens are HS256 JWTs sharing the application secret; the access
// core only ever sees the decoded auth.Claims.
package identitysvc

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/auth"
)

var ExpirationDelta = 7 * 24 * time.Hour

// Claims represents the identity assertions transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

type jwtVerifier struct {
	secretKey []byte
}

var _ auth.TokenVerifier = (*jwtVerifier)(nil)

func NewJWTVerifier(conf *core.Config) auth.TokenVerifier {
	return &jwtVerifier{secretKey: []byte(conf.SecretKey)}
}

func (v *jwtVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	claims := new(Claims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return v.secretKey, nil
	})
	if err != nil {
		return auth.Claims{}, errors.Wrap(err, "parsing token")
	}
	if !parsed.Valid || claims.Subject == "" {
		return auth.Claims{}, errors.New("invalid token claims")
	}
	return auth.Claims{
		UID:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// GenerateToken mints a signed JWT for the given identity. The API server
// never calls this; it exists for the operator CLI and tests.
func GenerateToken(conf *core.Config, uid, email string, emailVerified bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   uid,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ExpirationDelta).Unix(),
		},
		Email:         email,
		EmailVerified: emailVerified,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}
