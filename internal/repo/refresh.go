package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/pethostel/internal/models"
)

var (
	ErrNotFound = errors.New("refresh token not found")
	// ErrNotActive is returned by MarkUsed when the row was already used or
	// invalidated, including by a concurrent exchange.
	ErrNotActive = errors.New("refresh token not active")
)

// Store persists refresh-token records. Every mutation is committed (or
// is part of the enclosing Transaction) when the call returns.
type Store interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	FindByTokenForUser(ctx context.Context, token, userID string) (*models.RefreshToken, error)
	MarkUsed(ctx context.Context, id uint) error
	Invalidate(ctx context.Context, id uint) error
	InvalidateAllForUser(ctx context.Context, userID string) (int64, error)
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func (r *GormRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	if err := r.DB.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *GormRepo) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return r.first(r.DB.WithContext(ctx).Where("token = ?", token))
}

func (r *GormRepo) FindByTokenForUser(ctx context.Context, token, userID string) (*models.RefreshToken, error) {
	return r.first(r.DB.WithContext(ctx).Where("token = ? AND user_id = ?", token, userID))
}

func (r *GormRepo) first(q *gorm.DB) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := q.Take(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}

// MarkUsed flips used only while the row is still active, so of two
// concurrent exchanges of one token exactly one observes a changed row.
func (r *GormRepo) MarkUsed(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ? AND used = ? AND invalidated = ?", id, false, false).
		Update("used", true)
	if res.Error != nil {
		return fmt.Errorf("db error: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotActive
	}
	return nil
}

func (r *GormRepo) Invalidate(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Update("invalidated", true)
	if res.Error != nil {
		return fmt.Errorf("db error: %w", res.Error)
	}
	return nil
}

func (r *GormRepo) InvalidateAllForUser(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND invalidated = ?", userID, false).
		Update("invalidated", true)
	if res.Error != nil {
		return 0, fmt.Errorf("db error: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormRepo) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}
