package feed_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/dto"
	svcErr "github.com/oggyb/campus-match/internal/errors"
	"github.com/oggyb/campus-match/internal/service/feed"
	"github.com/oggyb/campus-match/internal/testutil"
	"github.com/oggyb/campus-match/internal/web"
)

func setup(t *testing.T) (*app.AppContext, *feed.Service) {
	t.Helper()
	appCtx := testutil.NewApp(t)
	return appCtx, feed.NewService(appCtx)
}

func post(t *testing.T, svc *feed.Service, authorID uint64, content, privacy string) *dto.PostView {
	t.Helper()
	p, err := svc.Create(context.Background(), authorID, feed.CreatePostInput{Content: content, Privacy: privacy})
	require.NoError(t, err)
	return p
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setup(t)
	a := testutil.CreateUser(t, appCtx.DB, "ana")

	p, err := svc.Create(ctx, a.ID, feed.CreatePostInput{Content: "  hola campus  "})
	require.NoError(t, err)
	assert.Equal(t, "hola campus", p.Content)
	assert.Equal(t, "public", p.Privacy)
	assert.Equal(t, "text", p.PostType)
	assert.Equal(t, "ana", p.Author.Name)

	img, err := svc.Create(ctx, a.ID, feed.CreatePostInput{
		Content:  "look",
		ImageURL: "https://cdn.example.com/post/1/a.png",
		Privacy:  "Friends",
	})
	require.NoError(t, err)
	assert.Equal(t, "image", img.PostType)
	assert.Equal(t, "friends", img.Privacy)

	bad := []feed.CreatePostInput{
		{Content: "   "},
		{Content: strings.Repeat("x", 501)},
		{Content: "x", Privacy: "secret"},
		{Content: "x", ImageURL: "javascript:alert(1)"},
		{Content: "x", ImageURL: "not a url"},
	}
	for _, in := range bad {
		_, err := svc.Create(ctx, a.ID, in)
		assert.True(t, svcErr.Is(err, svcErr.KindValidation), "input %+v: got %v", in, err)
	}
}

// TestList_Visibility: public for all, friends for matched users, private
// for the author only.
func TestList_Visibility(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setup(t)
	a := testutil.CreateUser(t, appCtx.DB, "ana")
	friend := testutil.CreateUser(t, appCtx.DB, "beto")
	stranger := testutil.CreateUser(t, appCtx.DB, "carla")
	testutil.CreateMatch(t, appCtx.DB, a.ID, friend.ID, db.MatchMatched)

	post(t, svc, a.ID, "public", "public")
	post(t, svc, a.ID, "friends", "friends")
	post(t, svc, a.ID, "private", "private")

	contents := func(viewer uint64) []string {
		page, err := svc.List(ctx, viewer, "")
		require.NoError(t, err)
		out := make([]string, 0, len(page.Posts))
		for _, p := range page.Posts {
			out = append(out, p.Content)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"public", "friends", "private"}, contents(a.ID))
	assert.ElementsMatch(t, []string{"public", "friends"}, contents(friend.ID))
	assert.ElementsMatch(t, []string{"public"}, contents(stranger.ID))
}

func TestList_Pagination(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setup(t)
	appCtx.Config.App.FeedLimit = 2
	a := testutil.CreateUser(t, appCtx.DB, "ana")
	for i := 0; i < 5; i++ {
		post(t, svc, a.ID, "post "+strconv.Itoa(i), "")
	}

	seen := map[uint64]bool{}
	token := ""
	pages := 0
	for {
		page, err := svc.List(ctx, a.ID, token)
		require.NoError(t, err)
		pages++
		for _, p := range page.Posts {
			assert.False(t, seen[p.ID], "post %d returned twice", p.ID)
			seen[p.ID] = true
		}
		if page.NextToken == nil {
			break
		}
		token = *page.NextToken
	}
	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 5)

	_, err := svc.List(ctx, a.ID, "%%%")
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
}

func TestLikeUnlike(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setup(t)
	a := testutil.CreateUser(t, appCtx.DB, "ana")
	b := testutil.CreateUser(t, appCtx.DB, "beto")
	p := post(t, svc, a.ID, "like me", "")
	hidden := post(t, svc, a.ID, "mine", "private")

	res, err := svc.Like(ctx, b.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LikesCount)

	_, err = svc.Like(ctx, b.ID, p.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindConflict), "got %v", err)

	res, err = svc.Like(ctx, a.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.LikesCount)

	_, err = svc.Like(ctx, b.ID, hidden.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	res, err = svc.Unlike(ctx, b.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, int64(1), res.LikesCount)

	_, err = svc.Unlike(ctx, b.ID, p.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setup(t)
	a := testutil.CreateUser(t, appCtx.DB, "ana")
	b := testutil.CreateUser(t, appCtx.DB, "beto")
	p := post(t, svc, a.ID, "discuss", "")
	other := post(t, svc, a.ID, "other", "")
	hidden := post(t, svc, a.ID, "mine", "private")

	top, err := svc.Comment(ctx, b.ID, p.ID, feed.CreateCommentInput{Content: "first"})
	require.NoError(t, err)
	assert.Nil(t, top.ParentID)

	reply, err := svc.Comment(ctx, a.ID, p.ID, feed.CreateCommentInput{Content: "reply", ParentID: &top.ID})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	_, err = svc.Comment(ctx, b.ID, p.ID, feed.CreateCommentInput{Content: "nested", ParentID: &reply.ID})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation), "nested reply: %v", err)
	_, err = svc.Comment(ctx, b.ID, other.ID, feed.CreateCommentInput{Content: "cross", ParentID: &top.ID})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation), "cross post: %v", err)
	missing := uint64(999)
	_, err = svc.Comment(ctx, b.ID, p.ID, feed.CreateCommentInput{Content: "x", ParentID: &missing})
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))
	_, err = svc.Comment(ctx, b.ID, p.ID, feed.CreateCommentInput{Content: strings.Repeat("y", 501)})
	assert.True(t, svcErr.Is(err, svcErr.KindValidation))
	_, err = svc.Comment(ctx, b.ID, hidden.ID, feed.CreateCommentInput{Content: "peek"})
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	list, err := svc.Comments(ctx, b.ID, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "reply", list[1].Content)

	_, err = svc.DeleteComment(ctx, a.ID, top.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound), "only the author deletes")

	res, err := svc.DeleteComment(ctx, b.ID, top.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Deleted)

	var stored db.Post
	require.NoError(t, appCtx.DB.First(&stored, p.ID).Error)
	assert.Zero(t, stored.CommentsCount)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	appCtx, svc := setup(t)
	a := testutil.CreateUser(t, appCtx.DB, "ana")
	b := testutil.CreateUser(t, appCtx.DB, "beto")
	p := post(t, svc, a.ID, "bye", "")
	_, err := svc.Like(ctx, b.ID, p.ID)
	require.NoError(t, err)
	_, err = svc.Comment(ctx, b.ID, p.ID, feed.CreateCommentInput{Content: "c"})
	require.NoError(t, err)

	err = svc.Delete(ctx, b.ID, p.ID)
	assert.True(t, svcErr.Is(err, svcErr.KindNotFound))

	require.NoError(t, svc.Delete(ctx, a.ID, p.ID))

	var likes, comments int64
	require.NoError(t, appCtx.DB.Model(&db.PostLike{}).Count(&likes).Error)
	require.NoError(t, appCtx.DB.Model(&db.Comment{}).Count(&comments).Error)
	assert.Zero(t, likes)
	assert.Zero(t, comments)
}

func TestRoutes(t *testing.T) {
	appCtx, _ := setup(t)
	a := testutil.CreateUser(t, appCtx.DB, "ana")
	b := testutil.CreateUser(t, appCtx.DB, "beto")

	r := mux.NewRouter()
	protected := r.NewRoute().Subrouter()
	protected.Use(web.RequireAuth(appCtx.Auth))
	feed.NewRegistrar(appCtx).RegisterRoutes(r, protected)

	do := func(method, path, body string, userID uint64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+testutil.Token(t, appCtx, userID))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/feed/posts", `{"content":"hello"}`, a.ID)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dto.PostView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := "/feed/posts/" + strconv.FormatUint(created.ID, 10)

	assert.Equal(t, http.StatusCreated, do(http.MethodPost, base+"/like", "", b.ID).Code)
	assert.Equal(t, http.StatusConflict, do(http.MethodPost, base+"/like", "", b.ID).Code)
	assert.Equal(t, http.StatusOK, do(http.MethodDelete, base+"/like", "", b.ID).Code)

	rec = do(http.MethodPost, base+"/comments", `{"content":"nice"}`, b.ID)
	require.Equal(t, http.StatusCreated, rec.Code)
	var c dto.CommentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))

	assert.Equal(t, http.StatusOK, do(http.MethodGet, base+"/comments", "", a.ID).Code)
	assert.Equal(t, http.StatusOK, do(http.MethodDelete, "/feed/comments/"+strconv.FormatUint(c.ID, 10), "", b.ID).Code)

	rec = do(http.MethodGet, "/feed/posts", "", b.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var page dto.FeedPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Posts, 1)
	assert.Nil(t, page.NextToken)

	assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/feed/posts?token=%21%21", "", b.ID).Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodDelete, base, "", b.ID).Code)
	assert.Equal(t, http.StatusNoContent, do(http.MethodDelete, base, "", a.ID).Code)
}
