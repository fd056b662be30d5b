package appctx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKDF = KDFParams{N: 1 << 4, R: 8, P: 1}

func signedToken(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	claims := Claims{
		TenantID: "tenant-1",
		Email:    "installer@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "none.yaml")}
	creds, err := store.Load()
	require.NoError(t, err)
	assert.True(t, creds.Empty())
}

func TestFileStorePlainRoundTrip(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "nested", "credentials.yaml")}
	want := Credentials{BaseURL: "https://api.example.com", Email: "a@b.c", AccessToken: "tok", SiteID: "site-1"}
	require.NoError(t, store.Save(want))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestFileStoreSealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.sealed")
	store := FileStore{Path: path, Passphrase: "correct horse", KDF: testKDF}
	want := Credentials{AccessToken: "super-secret-token"}
	require.NoError(t, store.Save(want))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "super-secret-token")

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = FileStore{Path: path, Passphrase: "wrong"}.Load()
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestParseClaims(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := ParseClaims(signedToken(t, "user-1", expires))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.True(t, claims.ExpiresAt.Time.Equal(expires))

	_, err = ParseClaims("")
	assert.Error(t, err)
	_, err = ParseClaims("not-a-jwt")
	assert.Error(t, err)
}

func TestAppLifecycle(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "credentials.yaml")}
	app, err := Open(store)
	require.NoError(t, err)
	assert.ErrorIs(t, app.Check(), ErrSignedOut)

	token := signedToken(t, "user-1", time.Now().Add(time.Hour))
	require.NoError(t, app.SignIn("https://api.example.com", "", token, "refresh"))
	require.NoError(t, app.Check())
	assert.Equal(t, "installer@example.com", app.Credentials().Email)
	assert.Equal(t, "user-1", app.Actor(context.Background()).UserID)
	assert.Equal(t, "tenant-1", app.Actor(context.Background()).TenantID)

	assert.ErrorIs(t, app.SelectSite("  "), ErrSiteRequired)
	require.NoError(t, app.SelectSite("site-9"))

	reopened, err := Open(store)
	require.NoError(t, err)
	assert.Equal(t, "site-9", reopened.Credentials().SiteID)
	require.NotNil(t, reopened.Claims())
	assert.Equal(t, "user-1", reopened.Claims().Subject)
}

func TestAppExpiredToken(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "credentials.yaml")}
	app, err := Open(store)
	require.NoError(t, err)
	require.NoError(t, app.SignIn("", "a@b.c", signedToken(t, "user-1", time.Now().Add(-time.Minute)), ""))
	assert.ErrorIs(t, app.Check(), ErrTokenExpired)
}

type failingRevoker struct{ calls int }

func (r *failingRevoker) Logout(context.Context) error {
	r.calls++
	return errors.New("backend unavailable")
}

func TestLogoutClearsEvenWhenRevokeFails(t *testing.T) {
	store := FileStore{Path: filepath.Join(t.TempDir(), "credentials.yaml")}
	app, err := Open(store)
	require.NoError(t, err)
	require.NoError(t, app.SignIn("", "a@b.c", signedToken(t, "user-1", time.Now().Add(time.Hour)), ""))

	revoker := &failingRevoker{}
	err = app.Logout(context.Background(), revoker)
	assert.Error(t, err)
	assert.Equal(t, 1, revoker.calls)
	assert.ErrorIs(t, app.Check(), ErrSignedOut)
	assert.Equal(t, "", app.Actor(context.Background()).UserID)

	_, statErr := os.Stat(store.Path)
	assert.True(t, os.IsNotExist(statErr))
}
