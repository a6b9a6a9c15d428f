package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

var ErrTokenInvalid = errors.New("authorization token invalid")

type AuthClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// SignAuthToken issues an HS256 token for the user
func SignAuthToken(userID, role string, now time.Time) (string, error) {
	ttl := time.Duration(viper.GetInt("jwt.ttl_hours")) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		UserID: userID,
		Role:   role,
		Type:   "auth",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	return t.SignedString([]byte(viper.GetString("jwt.secret")))
}

func ParseAuthToken(s string) (*AuthClaims, error) {
	var claims AuthClaims

	token, err := jwt.ParseWithClaims(s, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(viper.GetString("jwt.secret")), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.Type != "auth" || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return &claims, nil
}
