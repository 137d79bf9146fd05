package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ticket_service/internal/models"
	"github.com/Skotchmaster/ticket_service/internal/repo"
	"github.com/Skotchmaster/ticket_service/internal/tokens"
)

func newGuardEnv(t *testing.T) (*echo.Echo, *tokens.Codec) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	require.NoError(t, db.Create(&models.User{Email: "a@x.com", PasswordHash: "x"}).Error)

	codec := &tokens.Codec{
		Secret:     []byte("test-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}
	guard := NewGuard(codec, repo.GormRepo{DB: db})

	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		user := CurrentUser(c)
		require.NotNil(t, user)
		return c.String(http.StatusOK, user.Email)
	}, guard.RequireAccess)
	e.POST("/refresh-only", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, guard.RequireRefresh)

	return e, codec
}

func doAuthorized(e *echo.Echo, method, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGuard_ValidAccessToken(t *testing.T) {
	e, codec := newGuardEnv(t)

	token, err := codec.Issue(tokens.KindAccess, "a@x.com")
	require.NoError(t, err)

	rec := doAuthorized(e, http.MethodGet, "/protected", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "a@x.com", rec.Body.String())
}

func TestGuard_KindCrossCheck(t *testing.T) {
	e, codec := newGuardEnv(t)

	access, err := codec.Issue(tokens.KindAccess, "a@x.com")
	require.NoError(t, err)
	refresh, err := codec.Issue(tokens.KindRefresh, "a@x.com")
	require.NoError(t, err)

	rec := doAuthorized(e, http.MethodGet, "/protected", "Bearer "+refresh)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doAuthorized(e, http.MethodPost, "/refresh-only", "Bearer "+access)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doAuthorized(e, http.MethodPost, "/refresh-only", "Bearer "+refresh)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_RejectsBadCredentials(t *testing.T) {
	e, codec := newGuardEnv(t)

	expiredCodec := &tokens.Codec{Secret: codec.Secret, AccessTTL: -time.Minute}
	expired, err := expiredCodec.Issue(tokens.KindAccess, "a@x.com")
	require.NoError(t, err)

	foreignCodec := &tokens.Codec{Secret: []byte("other-secret"), AccessTTL: 15 * time.Minute}
	forged, err := foreignCodec.Issue(tokens.KindAccess, "a@x.com")
	require.NoError(t, err)

	unknown, err := codec.Issue(tokens.KindAccess, "ghost@x.com")
	require.NoError(t, err)

	cases := map[string]string{
		"missing header":   "",
		"no bearer prefix": "Token abc",
		"garbage token":    "Bearer garbage",
		"expired token":    "Bearer " + expired,
		"forged token":     "Bearer " + forged,
		"unknown subject":  "Bearer " + unknown,
	}
	for name, header := range cases {
		rec := doAuthorized(e, http.MethodGet, "/protected", header)
		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}
