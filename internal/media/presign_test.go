package media_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/config"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/media"
	"github.com/oggyb/campus-match/internal/testutil"
	"github.com/oggyb/campus-match/internal/web"
)

// Signing is local; no request reaches the endpoint.
func newPresigner(t *testing.T, mutate func(*config.S3Config)) *media.Presigner {
	t.Helper()
	cfg := config.S3Config{
		Bucket:     "campus-test",
		Region:     "us-east-1",
		Endpoint:   "http://127.0.0.1:9000",
		AccessKey:  "minioadmin",
		SecretKey:  "minioadmin",
		PresignTTL: 10 * time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := media.NewPresigner(context.Background(), cfg)
	require.NoError(t, err)
	return p
}

func TestPresign(t *testing.T) {
	p := newPresigner(t, nil)

	before := time.Now()
	up, err := p.Presign(context.Background(), 42, "avatar", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.ObjectKey, "avatar/42/"), up.ObjectKey)
	assert.True(t, strings.HasSuffix(up.ObjectKey, ".png"), up.ObjectKey)
	assert.Equal(t, "http://127.0.0.1:9000/campus-test/"+up.ObjectKey, up.PublicURL)
	assert.WithinDuration(t, before.Add(10*time.Minute), up.ExpiresAt, 5*time.Second)

	u, err := url.Parse(up.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", u.Host)
	assert.Equal(t, "/campus-test/"+up.ObjectKey, u.Path)
	q := u.Query()
	assert.Equal(t, "600", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Contains(t, q.Get("X-Amz-Credential"), "minioadmin/")

	other, err := p.Presign(context.Background(), 42, "avatar", "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, up.ObjectKey, other.ObjectKey)
}

func TestPresign_Validation(t *testing.T) {
	p := newPresigner(t, nil)

	cases := []struct{ kind, contentType string }{
		{"banner", "image/png"},
		{"", "image/png"},
		{"post", "application/pdf"},
		{"post", "text/html"},
		{"post", ""},
	}
	for _, tc := range cases {
		_, err := p.Presign(context.Background(), 1, tc.kind, tc.contentType)
		assert.True(t, svcErr.Is(err, svcErr.KindValidation), "%s %s: got %v", tc.kind, tc.contentType, err)
	}

	up, err := p.Presign(context.Background(), 1, "Post", "image/JPEG; charset=binary")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.ObjectKey, "post/1/"))
	assert.True(t, strings.HasSuffix(up.ObjectKey, ".jpg"))
}

func TestPublicURL(t *testing.T) {
	cdn := newPresigner(t, func(c *config.S3Config) { c.PublicBaseURL = "https://cdn.example.com/" })
	assert.Equal(t, "https://cdn.example.com/post/1/x.png", cdn.PublicURL("post/1/x.png"))

	direct := newPresigner(t, func(c *config.S3Config) { c.Endpoint = "" })
	assert.Equal(t, "https://campus-test.s3.us-east-1.amazonaws.com/post/1/x.png", direct.PublicURL("post/1/x.png"))
}

func TestNewPresigner_RequiresBucket(t *testing.T) {
	_, err := media.NewPresigner(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestRoute(t *testing.T) {
	appCtx := testutil.NewApp(t)
	u := testutil.CreateUser(t, appCtx.DB, "ana")

	r := mux.NewRouter()
	protected := r.NewRoute().Subrouter()
	protected.Use(web.RequireAuth(appCtx.Auth))
	media.NewRegistrar(newPresigner(t, nil)).RegisterRoutes(r, protected)

	req := httptest.NewRequest(http.MethodPost, "/media/presign", strings.NewReader(`{"kind":"post","content_type":"image/webp"}`))
	req.Header.Set("Authorization", "Bearer "+testutil.Token(t, appCtx, u.ID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var up media.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.True(t, strings.HasPrefix(up.ObjectKey, "post/"+strconv.FormatUint(u.ID, 10)+"/"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/media/presign", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
