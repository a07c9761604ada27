package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/pethostel/internal/domain"
	"github.com/Skotchmaster/pethostel/internal/events"
	"github.com/Skotchmaster/pethostel/internal/identity"
	"github.com/Skotchmaster/pethostel/internal/logging"
	"github.com/Skotchmaster/pethostel/internal/models"
	"github.com/Skotchmaster/pethostel/internal/repo"
	"github.com/Skotchmaster/pethostel/internal/tokens"
	"github.com/Skotchmaster/pethostel/internal/transport"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type Deps struct {
	Users      identity.Store
	Tokens     repo.Store
	Codec      *tokens.Codec
	Events     events.Publisher
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type AuthService struct {
	users      identity.Store
	tokens     repo.Store
	codec      *tokens.Codec
	events     events.Publisher
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func New(d Deps) *AuthService {
	s := &AuthService{
		users:      d.Users,
		tokens:     d.Tokens,
		codec:      d.Codec,
		events:     d.Events,
		accessTTL:  d.AccessTTL,
		refreshTTL: d.RefreshTTL,
		now:        d.Now,
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*transport.AuthResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := checkRegistration(in); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid input", "error", err)
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		l.Warn("register_failed", "status", 400, "reason", "email already registered")
		return nil, domain.ErrEmailExists
	case !errors.Is(err, identity.ErrNotFound):
		l.Error("register_failed", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, domain.Server(err)
	}

	u, err := s.users.Create(ctx, identity.NewUser{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			l.Warn("register_failed", "status", 400, "reason", "email already registered")
			return nil, domain.ErrEmailExists
		}
		l.Error("register_failed", "status", 500, "reason", "cannot create user", "error", err)
		return nil, domain.Server(err)
	}

	res, err := s.issuePair(ctx, s.tokens, subjectOf(u))
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot issue tokens", "user_id", u.ID, "error", err)
		return nil, domain.Server(err)
	}

	l.Info("register_successful", "user_id", u.ID)
	s.publish(ctx, events.Event{Type: events.TypeUserRegistered, UserID: u.ID})
	return res, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*transport.AuthResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if err := checkCredentials(email, password); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid input", "error", err)
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) {
			l.Error("login_failed", "status", 500, "reason", "cannot look up user", "error", err)
			return nil, domain.Server(err)
		}
		s.users.VerifyPassword(nil, password)
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}
	if !s.users.VerifyPassword(u, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}

	res, err := s.issuePair(ctx, s.tokens, subjectOf(u))
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "user_id", u.ID, "error", err)
		return nil, domain.Server(err)
	}

	l.Info("login_successful", "user_id", u.ID)
	s.publish(ctx, events.Event{Type: events.TypeUserLoggedIn, UserID: u.ID})
	return res, nil
}

// Refresh exchanges a refresh token for a new pair. The presented row is
// consumed by a compare-and-set inside the same transaction that stores its
// successor, so a token can be exchanged at most once.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*transport.AuthResponse, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if accessToken == "" || refreshToken == "" {
		l.Warn("refresh_failed", "status", 400, "reason", "tokens required")
		return nil, domain.ErrTokensRequired
	}

	claims, err := s.codec.ValidateExpired(accessToken)
	if err != nil || claims.Subject == "" {
		l.Warn("refresh_failed", "status", 400, "reason", "invalid access token", "error", err)
		return nil, domain.ErrInvalidToken
	}
	userID := claims.Subject
	l = l.With("user_id", userID)

	rec, err := s.tokens.FindByTokenForUser(ctx, refreshToken, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_failed", "status", 400, "reason", "refresh token not found")
			return nil, domain.ErrInvalidToken
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot look up refresh token", "error", err)
		return nil, domain.Server(err)
	}
	if !rec.Active(s.now()) {
		l.Warn("refresh_failed", "status", 400, "reason", "refresh token used, invalidated or expired")
		return nil, domain.ErrInvalidToken
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			l.Warn("refresh_failed", "status", 400, "reason", "user no longer exists")
			return nil, domain.ErrInvalidToken
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot look up user", "error", err)
		return nil, domain.Server(err)
	}

	var res *transport.AuthResponse
	err = s.tokens.Transaction(ctx, func(tx repo.Store) error {
		if err := tx.MarkUsed(ctx, rec.ID); err != nil {
			return err
		}
		var err error
		res, err = s.issuePair(ctx, tx, subjectOf(u))
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotActive) {
			l.Warn("refresh_failed", "status", 400, "reason", "refresh token already exchanged")
			return nil, domain.ErrInvalidToken
		}
		l.Error("refresh_failed", "status", 500, "reason", "cannot rotate refresh token", "error", err)
		return nil, domain.Server(err)
	}

	l.Info("refresh_successful")
	s.publish(ctx, events.Event{Type: events.TypeTokensRefreshed, UserID: userID})
	return res, nil
}

func (s *AuthService) RevokeToken(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.revoke")

	if refreshToken == "" {
		l.Warn("revoke_failed", "status", 400, "reason", "refresh token required")
		return domain.ErrRefreshMissing
	}

	rec, err := s.tokens.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("revoke_failed", "status", 400, "reason", "refresh token not found")
			return domain.ErrInvalidRefresh
		}
		l.Error("revoke_failed", "status", 500, "reason", "cannot look up refresh token", "error", err)
		return domain.Server(err)
	}

	if err := s.tokens.Invalidate(ctx, rec.ID); err != nil {
		l.Error("revoke_failed", "status", 500, "reason", "cannot invalidate refresh token", "error", err)
		return domain.Server(err)
	}

	l.Info("revoke_successful", "user_id", rec.UserID)
	s.publish(ctx, events.Event{Type: events.TypeTokenRevoked, UserID: rec.UserID})
	return nil
}

// RevokeAll invalidates every live refresh token of the user and returns how
// many were affected.
func (s *AuthService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	l := logging.FromContext(ctx).With("svc", "auth.revoke_all")

	if userID == "" {
		l.Warn("revoke_all_failed", "status", 400, "reason", "user not identified")
		return 0, domain.ErrUserNotIdentified
	}

	n, err := s.tokens.InvalidateAllForUser(ctx, userID)
	if err != nil {
		l.Error("revoke_all_failed", "status", 500, "reason", "cannot invalidate refresh tokens", "user_id", userID, "error", err)
		return 0, domain.Server(err)
	}

	l.Info("revoke_all_successful", "user_id", userID, "count", n)
	s.publish(ctx, events.Event{Type: events.TypeAllTokensRevoked, UserID: userID, Count: &n})
	return n, nil
}

func (s *AuthService) CurrentUser(claims *tokens.AccessClaims) transport.UserInfo {
	if claims == nil {
		return transport.UserInfo{}
	}
	return transport.UserInfo{
		ID:        claims.Subject,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}
}

func (s *AuthService) issuePair(ctx context.Context, store repo.Store, subj tokens.Subject) (*transport.AuthResponse, error) {
	access, err := s.codec.Issue(subj, s.accessTTL)
	if err != nil {
		return nil, err
	}
	value, err := tokens.NewOpaque()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &models.RefreshToken{
		Token:        value,
		JwtID:        access.JTI,
		UserID:       subj.ID,
		CreationDate: now,
		ExpiryDate:   now.Add(s.refreshTTL),
	}
	if err := store.Create(ctx, rec); err != nil {
		return nil, err
	}
	return assemble(access, rec, subj), nil
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now().UTC()
	}
	if err := s.events.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}
