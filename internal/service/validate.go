package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Skotchmaster/pethostel/internal/domain"
)

var validate = validator.New()

func checkEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.ErrEmptyEmail
	}
	if validate.Var(strings.TrimSpace(email), "email") != nil {
		return domain.ErrInvalidEmailFormat
	}
	return nil
}

func checkCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return domain.ErrEmptyEmail
	}
	if password == "" {
		return domain.ErrEmptyPassword
	}
	return checkEmail(email)
}

func checkRegistration(in RegisterInput) error {
	if err := checkEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return domain.ErrEmptyPassword
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return domain.ErrValidation.WithParam("field", "firstName")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return domain.ErrValidation.WithParam("field", "lastName")
	}
	return nil
}
