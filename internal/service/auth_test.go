package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ticket_service/internal/hash"
	"github.com/Skotchmaster/ticket_service/internal/models"
	"github.com/Skotchmaster/ticket_service/internal/repo"
	"github.com/Skotchmaster/ticket_service/internal/tokens"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Ticket{}))
	return db
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeMailer) {
	m := &fakeMailer{}
	svc := &AuthService{
		Repo: repo.GormRepo{DB: newTestDB(t)},
		Codec: &tokens.Codec{
			Secret:     []byte("test-secret"),
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Mailer: m,
	}
	return svc, m
}

func storedCode(t *testing.T, svc *AuthService, email string) string {
	user, err := svc.Repo.FindUserByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, user.ConfirmationCode)
	return *user.ConfirmationCode
}

func TestNewConfirmationCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := NewConfirmationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		require.GreaterOrEqual(t, code, "100000")
		require.LessOrEqual(t, code, "999999")
	}
}

func TestRegister(t *testing.T) {
	svc, m := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "pw", user.PasswordHash)
	assert.True(t, hash.CheckPassword(user.PasswordHash, "pw"))

	code := storedCode(t, svc, "a@x.com")
	require.Len(t, m.sent, 1)
	assert.Equal(t, "a@x.com", m.sent[0].to)
	assert.Equal(t, "Confirm your registration", m.sent[0].subject)
	assert.Contains(t, m.sent[0].body, code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "a@x.com", "other")
	require.ErrorIs(t, err, repo.ErrEmailTaken)
}

func TestRegister_EmailFailureRollsBack(t *testing.T) {
	svc, m := newTestAuthService(t)
	ctx := context.Background()

	m.fail = true
	_, err := svc.Register(ctx, "a@x.com", "pw")
	require.Error(t, err)

	_, err = svc.Repo.FindUserByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, repo.ErrUserNotFound)
}

func TestRequestLogin(t *testing.T) {
	svc, m := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	err = svc.RequestLogin(ctx, "missing@x.com", "pw")
	require.ErrorIs(t, err, repo.ErrUserNotFound)

	err = svc.RequestLogin(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrWrongPassword)

	err = svc.RequestLogin(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	code := storedCode(t, svc, "a@x.com")
	require.Len(t, code, 6)
	require.Len(t, m.sent, 2)
	assert.Equal(t, "Login code", m.sent[1].subject)
	assert.Contains(t, m.sent[1].body, code)
}

func TestRequestLogin_OverwritesOutstandingCode(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.RequestLogin(ctx, "a@x.com", "pw"))
	first := storedCode(t, svc, "a@x.com")

	require.NoError(t, svc.RequestLogin(ctx, "a@x.com", "pw"))
	second := storedCode(t, svc, "a@x.com")

	// A stale code must not confirm once a newer one is live.
	if first != second {
		_, err = svc.ConfirmLogin(ctx, "a@x.com", first)
		require.ErrorIs(t, err, ErrInvalidCode)
	}
	_, err = svc.ConfirmLogin(ctx, "a@x.com", second)
	require.NoError(t, err)
}

func TestRequestLogin_EmailFailureKeepsOldCode(t *testing.T) {
	svc, m := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	before := storedCode(t, svc, "a@x.com")

	m.fail = true
	err = svc.RequestLogin(ctx, "a@x.com", "pw")
	require.Error(t, err)

	after := storedCode(t, svc, "a@x.com")
	assert.Equal(t, before, after)
}

func TestConfirmLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	code := storedCode(t, svc, "a@x.com")

	pair, err := svc.ConfirmLogin(ctx, "a@x.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	accessClaims, err := svc.Codec.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.KindAccess, accessClaims.Type)
	assert.Equal(t, "a@x.com", accessClaims.Subject)

	refreshClaims, err := svc.Codec.Decode(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.KindRefresh, refreshClaims.Type)
	assert.Equal(t, "a@x.com", refreshClaims.Subject)

	user, err := svc.Repo.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, user.ConfirmationCode)

	// The code is single use.
	_, err = svc.ConfirmLogin(ctx, "a@x.com", code)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestConfirmLogin_Failures(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.ConfirmLogin(ctx, "missing@x.com", "123456")
	require.ErrorIs(t, err, repo.ErrUserNotFound)

	_, err = svc.Register(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	code := storedCode(t, svc, "a@x.com")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err = svc.ConfirmLogin(ctx, "a@x.com", wrong)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestRefreshAccessToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	user := &models.User{Email: "a@x.com"}
	access, err := svc.RefreshAccessToken(context.Background(), user)
	require.NoError(t, err)

	claims, err := svc.Codec.Decode(access)
	require.NoError(t, err)
	assert.Equal(t, tokens.KindAccess, claims.Type)
	assert.Equal(t, "a@x.com", claims.Subject)
}
