package service

import (
	"context"
	"errors"
	"time"

	"github.com/elmazzun/jwt-manager/internal/audit"
	"github.com/elmazzun/jwt-manager/internal/auth"
	"github.com/elmazzun/jwt-manager/internal/hash"
	"github.com/elmazzun/jwt-manager/internal/logging"
	"github.com/elmazzun/jwt-manager/internal/models"
	"github.com/elmazzun/jwt-manager/internal/mykafka"
	"github.com/elmazzun/jwt-manager/internal/repo"
	"github.com/elmazzun/jwt-manager/internal/token"
)

var (
	ErrWrongPassword = errors.New("wrong password")
	ErrUnknownRole   = errors.New("unknown role")
)

// AccountService holds the account lifecycle and both revocation
// mechanisms: per-user secret rotation and the global watermark.
// Producer and Audit are optional sinks; their failures are logged, never
// surfaced to the caller.
type AccountService struct {
	Users     *repo.UserRepo
	Watermark *auth.Watermark
	Producer  *mykafka.Producer
	Audit     *audit.Indexer
}

func (s *AccountService) Register(ctx context.Context, username, email, password string) error {
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	secret, err := token.NewSecret()
	if err != nil {
		return err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		TokenSecret:  secret,
		Role:         models.RoleGuest,
	}
	if err := s.Users.Create(ctx, &user); err != nil {
		return err
	}

	s.publish(ctx, "user_registered", username, nil)
	return nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return "", ErrWrongPassword
	}

	signed, err := token.Issue(user.Username, user.Email, user.Role, user.TokenSecret)
	if err != nil {
		return "", err
	}

	s.publish(ctx, "user_logged_in", username, nil)
	return signed, nil
}

func (s *AccountService) GetUser(ctx context.Context, username string) (*models.User, error) {
	return s.Users.FindByUsername(ctx, username)
}

func (s *AccountService) ResetPassword(ctx context.Context, username, oldPassword, newPassword string) error {
	user, err := s.Users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, username, pwHash); err != nil {
		return err
	}

	s.publish(ctx, "password_reset", username, nil)
	return nil
}

func (s *AccountService) ChangeRole(ctx context.Context, username, role string) error {
	if !models.KnownRole(role) {
		return ErrUnknownRole
	}
	if err := s.Users.UpdateRole(ctx, username, role); err != nil {
		return err
	}

	s.publish(ctx, "role_changed", username, map[string]interface{}{"role": role})
	return nil
}

// RevokeUser rotates the user's signing secret. Every token issued before
// the rotation fails signature verification from this moment on.
func (s *AccountService) RevokeUser(ctx context.Context, username string) error {
	secret, err := token.NewSecret()
	if err != nil {
		return err
	}
	if err := s.Users.RotateSecret(ctx, username, secret); err != nil {
		return err
	}

	s.publish(ctx, "token_revoked", username, nil)
	return nil
}

// RevokeOlder moves the global watermark: tokens issued before thresholdMS
// are rejected service-wide, whoever signed them.
func (s *AccountService) RevokeOlder(ctx context.Context, thresholdMS int64) {
	s.Watermark.Set(thresholdMS)
	s.publish(ctx, "watermark_set", "", map[string]interface{}{"older_than": thresholdMS})
}

func (s *AccountService) publish(ctx context.Context, kind, username string, extra map[string]interface{}) {
	if s.Producer == nil && s.Audit == nil {
		return
	}

	event := map[string]interface{}{
		"type": kind,
		"at":   time.Now().UnixMilli(),
	}
	if username != "" {
		event["username"] = username
	}
	for k, v := range extra {
		event[k] = v
	}

	l := logging.FromContext(ctx)
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if s.Producer != nil {
		if err := s.Producer.PublishEvent(pubCtx, username, event); err != nil {
			l.Error("kafka publish failed", "type", kind, "error", err)
		}
	}
	if s.Audit != nil {
		if err := s.Audit.Write(pubCtx, event); err != nil {
			l.Error("audit index failed", "type", kind, "error", err)
		}
	}
}
