package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/dto"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/service/account"
	"github.com/oggyb/campus-match/internal/testutil"
	"github.com/oggyb/campus-match/internal/web"
)

func validInput() account.RegisterInput {
	return account.RegisterInput{
		Name:      "Ana Gomez",
		Email:     "Ana.Gomez@ECCI.edu.co",
		Password:  "secret1",
		Program:   "Systems Engineering",
		Term:      3,
		Interests: []string{" chess ", "", "Chess", "hiking"},
		Bio:       "hi",
	}
}

// TestRegister creates a verified, lower-cased account with a usable token.
func TestRegister(t *testing.T) {
	ctx := context.Background()
	appCtx := testutil.NewApp(t)
	svc := account.NewService(appCtx)

	sess, err := svc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "ana.gomez@ecci.edu.co", sess.User.Email)
	assert.True(t, sess.User.Verified)
	assert.Equal(t, []string{"chess", "hiking"}, sess.User.Interests)

	id, err := appCtx.Tokens.Parse(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id)

	var stored db.User
	require.NoError(t, appCtx.DB.First(&stored, id).Error)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

// TestRegister_Validation rejects bad input before anything is inserted.
func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	appCtx := testutil.NewApp(t)
	svc := account.NewService(appCtx)

	cases := map[string]func(*account.RegisterInput){
		"foreign domain":   func(in *account.RegisterInput) { in.Email = "ana@gmail.com" },
		"lookalike domain": func(in *account.RegisterInput) { in.Email = "ana@evilecci.edu.co" },
		"no local part":    func(in *account.RegisterInput) { in.Email = "@ecci.edu.co" },
		"short password":   func(in *account.RegisterInput) { in.Password = "12345" },
		"missing name":     func(in *account.RegisterInput) { in.Name = "  " },
		"missing program":  func(in *account.RegisterInput) { in.Program = "" },
		"term too low":     func(in *account.RegisterInput) { in.Term = 0 },
		"term too high":    func(in *account.RegisterInput) { in.Term = 21 },
		"bio too long":     func(in *account.RegisterInput) { in.Bio = string(bytes.Repeat([]byte("a"), 501)) },
	}
	for name, mutate := range cases {
		in := validInput()
		mutate(&in)
		_, err := svc.Register(ctx, in)
		assert.True(t, svcErr.Is(err, svcErr.KindValidation), "%s: %v", name, err)
	}

	var count int64
	appCtx.DB.Model(&db.User{}).Count(&count)
	assert.Zero(t, count)
}

// TestRegister_DuplicateEmail is a conflict regardless of case.
func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := account.NewService(testutil.NewApp(t))

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "ana.gomez@ecci.edu.co"
	_, err = svc.Register(ctx, in)
	assert.True(t, svcErr.Is(err, svcErr.KindConflict), "got %v", err)
}

// TestLogin uses one message for unknown email and wrong password.
func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := account.NewService(testutil.NewApp(t))

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	sess, err := svc.Login(ctx, account.LoginInput{Email: " ANA.GOMEZ@ecci.edu.co", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, wrongPass := svc.Login(ctx, account.LoginInput{Email: "ana.gomez@ecci.edu.co", Password: "nope!!"})
	_, unknown := svc.Login(ctx, account.LoginInput{Email: "zoe@ecci.edu.co", Password: "secret1"})
	for _, err := range []error{wrongPass, unknown} {
		assert.True(t, svcErr.Is(err, svcErr.KindAuthentication))
		assert.Equal(t, "invalid email or password", svcErr.PublicMessage(err))
	}
}

// TestUpdate applies a partial patch and re-hashes a new password.
func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := account.NewService(testutil.NewApp(t))

	sess, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	bio := "new bio"
	term := 4
	pass := "another1"
	p, err := svc.Update(ctx, sess.User.ID, account.UpdateInput{Bio: &bio, Term: &term, Password: &pass})
	require.NoError(t, err)
	assert.Equal(t, "new bio", p.Bio)
	assert.Equal(t, 4, p.Term)
	assert.Equal(t, "Ana Gomez", p.Name)

	_, err = svc.Login(ctx, account.LoginInput{Email: "ana.gomez@ecci.edu.co", Password: "another1"})
	assert.NoError(t, err)

	bad := 99
	_, err = svc.Update(ctx, sess.User.ID, account.UpdateInput{Term: &bad})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))

	short := "abc"
	_, err = svc.Update(ctx, sess.User.ID, account.UpdateInput{Password: &short})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
}

// TestRoutes drives register and /auth/me through the router.
func TestRoutes(t *testing.T) {
	appCtx := testutil.NewApp(t)

	r := mux.NewRouter()
	protected := r.NewRoute().Subrouter()
	protected.Use(web.RequireAuth(appCtx.Auth))
	account.NewRegistrar(appCtx).RegisterRoutes(r, protected)

	body, _ := json.Marshal(validInput())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess dto.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.NotContains(t, rec.Body.String(), "password")

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var me dto.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, sess.User.ID, me.ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
