package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/elmazzun/jwt-manager/internal/models"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// UserRepo is the credential store: one row per user, looked up by
// username. Row-level atomicity of updates is delegated to the database.
type UserRepo struct {
	DB *gorm.DB
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query users: %w", err)
	}
	return &user, nil
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	tx := r.DB.WithContext(ctx).Where("username = ?", u.Username).FirstOrCreate(u)
	if tx.Error != nil {
		return fmt.Errorf("insert user: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	return r.update(ctx, username, map[string]interface{}{"password_hash": passwordHash})
}

func (r *UserRepo) UpdateRole(ctx context.Context, username, role string) error {
	return r.update(ctx, username, map[string]interface{}{"role": role})
}

// RotateSecret replaces the user's signing secret in a single update, so
// verification never observes a half-rotated record.
func (r *UserRepo) RotateSecret(ctx context.Context, username, secret string) error {
	return r.update(ctx, username, map[string]interface{}{
		"token_secret": secret,
		"invalidated":  true,
	})
}

func (r *UserRepo) update(ctx context.Context, username string, cols map[string]interface{}) error {
	tx := r.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Updates(cols)
	if tx.Error != nil {
		return fmt.Errorf("update user: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
