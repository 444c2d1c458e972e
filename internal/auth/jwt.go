package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// Claims authorize one blob upload: Subject is the owner address and FID the
// file the bearer may send.
type Claims struct {
	jwt.RegisteredClaims
	FID string `json:"fid"`
}

// GenerateUploadToken signs an HS256 token for owner uploading fid.
func GenerateUploadToken(owner, fid string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		FID: fid,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseUploadToken validates tokenString and returns its claims.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// validation yields common.ErrInvalidToken.
func ParseUploadToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" || claims.FID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
