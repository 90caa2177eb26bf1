package auth

import (
	"literature-manager/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Login(password string) (string, error)
}

// DefaultService checks a single shared password against a bcrypt hash.
type DefaultService struct {
	passwordHash []byte
	tokens       *TokenIssuer
}

func NewService(passwordHash string, tokens *TokenIssuer) Service {
	return &DefaultService{passwordHash: []byte(passwordHash), tokens: tokens}
}

// Login returns an access token when password matches the configured hash.
func (s *DefaultService) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", errors.Unauthorized("Wrong password", err)
	}

	token, err := s.tokens.Generate(Subject)
	if err != nil {
		return "", errors.Internal(err)
	}
	return token, nil
}

// HashPassword produces the value expected in AUTH_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
