package service

import (
	"github.com/Skotchmaster/pethostel/internal/models"
	"github.com/Skotchmaster/pethostel/internal/tokens"
	"github.com/Skotchmaster/pethostel/internal/transport"
)

func subjectOf(u *models.User) tokens.Subject {
	return tokens.Subject{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func userInfo(s tokens.Subject) transport.UserInfo {
	return transport.UserInfo{ID: s.ID, Email: s.Email, FirstName: s.FirstName, LastName: s.LastName}
}

// assemble builds the outward pair. Only the opaque value of the refresh
// row leaves the service.
func assemble(access *tokens.Issued, refresh *models.RefreshToken, s tokens.Subject) *transport.AuthResponse {
	return &transport.AuthResponse{
		AccessToken:            access.Token,
		RefreshToken:           refresh.Token,
		AccessTokenExpiration:  access.ExpiresAt,
		RefreshTokenExpiration: refresh.ExpiryDate,
		User:                   userInfo(s),
	}
}
