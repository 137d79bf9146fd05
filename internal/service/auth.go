package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/ticket_service/internal/events"
	"github.com/Skotchmaster/ticket_service/internal/hash"
	"github.com/Skotchmaster/ticket_service/internal/logging"
	"github.com/Skotchmaster/ticket_service/internal/mailer"
	"github.com/Skotchmaster/ticket_service/internal/models"
	"github.com/Skotchmaster/ticket_service/internal/repo"
	"github.com/Skotchmaster/ticket_service/internal/tokens"
)

var (
	ErrWrongPassword = errors.New("wrong password")
	ErrInvalidCode   = errors.New("invalid confirmation code")
)

type AuthService struct {
	Repo   repo.GormRepo
	Codec  *tokens.Codec
	Mailer mailer.Sender
	Events *events.Producer
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// NewConfirmationCode draws a uniformly random 6-digit decimal code in
// [100000, 999999].
func NewConfirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// Register creates the user and emails a confirmation code. The user row,
// the stored code and the email share one transaction, so a failed send
// leaves no half-registered account behind.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	code, err := NewConfirmationCode()
	if err != nil {
		return nil, err
	}

	user := &models.User{Email: email, PasswordHash: pwHash}
	err = s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		txRepo := s.Repo.WithTx(tx)
		if err := txRepo.CreateUser(ctx, user); err != nil {
			return err
		}
		if err := txRepo.SetConfirmationCode(ctx, email, code); err != nil {
			return err
		}
		return s.Mailer.Send(ctx, email, "Confirm your registration",
			fmt.Sprintf("Your confirmation code is %s.", code))
	})
	if err != nil {
		if !errors.Is(err, repo.ErrEmailTaken) {
			l.Error("register_failed", "error", err)
		}
		return nil, err
	}
	user.ConfirmationCode = &code

	s.publishUserEvent(ctx, "user_registered", user)
	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

// RequestLogin verifies the password, stores a fresh one-time code on the
// user (overwriting any outstanding one) and emails it. The code write and
// the email send share one transaction.
func (s *AuthService) RequestLogin(ctx context.Context, email, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password")
		return ErrWrongPassword
	}

	code, err := NewConfirmationCode()
	if err != nil {
		return err
	}

	err = s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Repo.WithTx(tx).SetConfirmationCode(ctx, email, code); err != nil {
			return err
		}
		return s.Mailer.Send(ctx, email, "Login code",
			fmt.Sprintf("Your login code is %s.", code))
	})
	if err != nil {
		l.Error("login_code_failed", "error", err)
		return err
	}

	s.publishUserEvent(ctx, "login_code_sent", user)
	l.Info("login_code_sent")
	return nil
}

// ConfirmLogin exchanges a valid one-time code for an access/refresh token
// pair. The code is cleared before issuing, so each code confirms at most
// once.
func (s *AuthService) ConfirmLogin(ctx context.Context, email, code string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.confirm", "email", email)

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.ConfirmationCode == nil || *user.ConfirmationCode != code {
		l.Warn("confirm_failed", "reason", "code mismatch")
		return nil, ErrInvalidCode
	}

	if err := s.Repo.ClearConfirmationCode(ctx, email); err != nil {
		return nil, err
	}

	access, err := s.Codec.Issue(tokens.KindAccess, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Codec.Issue(tokens.KindRefresh, user.Email)
	if err != nil {
		return nil, err
	}

	s.publishUserEvent(ctx, "user_logged_in", user)
	l.Info("login_confirmed", "user_id", user.ID)
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// RefreshAccessToken mints a new access token for a user already resolved
// from a valid refresh token. The refresh token itself is not rotated.
func (s *AuthService) RefreshAccessToken(ctx context.Context, user *models.User) (string, error) {
	return s.Codec.Issue(tokens.KindAccess, user.Email)
}

func (s *AuthService) publishUserEvent(ctx context.Context, eventType string, user *models.User) {
	event := map[string]any{
		"type":    eventType,
		"user_id": user.ID,
		"email":   user.Email,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, events.TopicUserEvents, fmt.Sprint(user.ID), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
