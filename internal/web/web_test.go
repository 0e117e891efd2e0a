package web_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/auth"
	apperr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/testutil"
	"github.com/oggyb/campus-match/internal/web"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body web.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestError_MapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("name is required"), http.StatusBadRequest, "name is required"},
		{apperr.Unauthenticated("invalid token"), http.StatusUnauthorized, "invalid token"},
		{apperr.Forbidden("nope"), http.StatusForbidden, "nope"},
		{apperr.NotFound("post not found"), http.StatusNotFound, "post not found"},
		{apperr.Conflict("already liked"), http.StatusConflict, "already liked"},
		{errors.New("db exploded"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		web.Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.msg, decodeError(t, rec))
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ana"}`))
	require.NoError(t, web.Decode(req, &dst))
	assert.Equal(t, "ana", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.NoError(t, web.Decode(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	err := web.Decode(req, &dst)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPathUint(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "12"})
	id, err := web.PathUint(req, "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		req = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": bad})
		_, err = web.PathUint(req, "id")
		assert.True(t, apperr.Is(err, apperr.KindValidation), bad)
	}
}

func TestRequireAuth(t *testing.T) {
	gdb := testutil.OpenDB(t)
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	a := auth.NewAuthenticator(issuer, repository.NewUserRepository(gdb))
	u := testutil.CreateUser(t, gdb, "ana")

	r := mux.NewRouter()
	r.Use(web.RequestLogger, web.Recoverer)
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(web.RequireAuth(a))
	protected.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		me, err := web.MustUser(r)
		if err != nil {
			web.Error(w, r, err)
			return
		}
		web.JSON(w, http.StatusOK, map[string]any{"id": me.ID})
	})
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "access token required", decodeError(t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	tok, _, err := issuer.Issue(u.ID)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]uint64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, u.ID, body["id"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
