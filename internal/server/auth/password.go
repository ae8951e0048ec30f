package auth

import (
	"errors"
	"fmt"

	"github.com/mygardenbook/gardenbook/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced when an admin account is created.
const MinPasswordLength = 8

func HashPassword(password string) ([]byte, error) {
	if len(password) < MinPasswordLength {
		return nil, common.Validationf("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// CheckPassword returns common.ErrInvalidCredential on mismatch.
func CheckPassword(hash []byte, password string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrInvalidCredential
	}
	return fmt.Errorf("%w: %v", common.ErrInvalidCredential, err)
}
