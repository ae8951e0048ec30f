// Package auth issues admin tokens and turns bearer credentials back into
// an admin identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mygardenbook/gardenbook/internal/common"
)

// Claims carries the standard registered claims plus the admin id.
type Claims struct {
	jwt.RegisteredClaims
	AdminID string `json:"admin_id"`
}

func GenerateToken(adminID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AdminID: adminID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetAdminIDFromToken validates an HS256 token. Every failure, expiry
// included, matches common.ErrInvalidCredential.
func GetAdminIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", common.ErrInvalidCredential)
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidCredential, err)
	}

	if !token.Valid || claims.AdminID == "" {
		return "", common.ErrInvalidCredential
	}

	return claims.AdminID, nil
}
