package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pethostel/internal/hash"
	"github.com/Skotchmaster/pethostel/internal/models"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type NewUser struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Store resolves and creates the users tokens are issued to.
// VerifyPassword with a nil user still pays for one hash comparison at the
// store's cost and reports false.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u NewUser) (*models.User, error)
	VerifyPassword(u *models.User, password string) bool
}

type GormStore struct {
	DB   *gorm.DB
	Cost int

	dummyOnce sync.Once
	dummyHash string
}

func NewGormStore(db *gorm.DB, cost int) *GormStore {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &GormStore{DB: db, Cost: cost}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.take(s.DB.WithContext(ctx).Where("email = ?", NormalizeEmail(email)))
}

func (s *GormStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.take(s.DB.WithContext(ctx).Where("id = ?", id))
}

func (s *GormStore) take(q *gorm.DB) (*models.User, error) {
	var u models.User
	if err := q.Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}

func (s *GormStore) Create(ctx context.Context, nu NewUser) (*models.User, error) {
	pwHash, err := hash.HashPassword(nu.Password, s.Cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(nu.Email),
		PasswordHash: pwHash,
		FirstName:    strings.TrimSpace(nu.FirstName),
		LastName:     strings.TrimSpace(nu.LastName),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// isDuplicate covers drivers whose unique violations are not translated
// into gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

func (s *GormStore) VerifyPassword(u *models.User, password string) bool {
	if u == nil {
		hash.CheckPassword(s.dummy(), password)
		return false
	}
	return hash.CheckPassword(u.PasswordHash, password)
}

// dummy is hashed at the same cost as real users so that a miss costs as
// much as a wrong password.
func (s *GormStore) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := hash.HashPassword("pethostel-no-such-user", s.Cost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
