package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/repository"
	"github.com/oggyb/campus-match/internal/testutil"
)

func TestMessages_HistoryReadAndSummaries(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	repo := repository.NewMessageRepository(gdb)

	a := testutil.CreateUser(t, gdb, "ana")
	b := testutil.CreateUser(t, gdb, "beto")
	c := testutil.CreateUser(t, gdb, "carla")
	m1 := testutil.CreateMatch(t, gdb, a.ID, b.ID, db.MatchMatched)
	m2 := testutil.CreateMatch(t, gdb, a.ID, c.ID, db.MatchMatched)

	send := func(matchID, sender uint64, content string) *db.Message {
		msg, err := repo.Create(ctx, &db.Message{MatchID: matchID, SenderID: sender, Content: content, Type: db.MessageText})
		require.NoError(t, err)
		return msg
	}

	first := send(m1.ID, a.ID, "hola")
	assert.Equal(t, "ana", first.Sender.Name)
	send(m1.ID, b.ID, "que tal")
	send(m1.ID, b.ID, "?")
	last2 := send(m2.ID, c.ID, "hey")

	history, err := repo.ListByMatch(ctx, m1.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "hola", history[0].Content)
	assert.Equal(t, "?", history[2].Content)

	unread, err := repo.UnreadCounts(ctx, []uint64{m1.ID, m2.ID}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread[m1.ID])
	assert.Equal(t, int64(1), unread[m2.ID])

	lasts, err := repo.LastMessages(ctx, []uint64{m1.ID, m2.ID})
	require.NoError(t, err)
	assert.Equal(t, "?", lasts[m1.ID].Content)
	assert.Equal(t, last2.ID, lasts[m2.ID].ID)

	n, err := repo.MarkRead(ctx, m1.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "own messages untouched")

	n, err = repo.MarkRead(ctx, m1.ID, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	unread, err = repo.UnreadCounts(ctx, []uint64{m1.ID}, a.ID)
	require.NoError(t, err)
	assert.Zero(t, unread[m1.ID])

	empty, err := repo.LastMessages(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.OpenDB(t)
	repo := repository.NewUserRepository(gdb)

	u := &db.User{Name: "Ana", Email: "ana@" + testutil.Domain, PasswordHash: "x", Program: "Math", Term: 2}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	dup := &db.User{Name: "Other", Email: u.Email, PasswordHash: "x", Program: "Math", Term: 1}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)

	got, err := repo.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.FindByEmail(ctx, "nobody@"+testutil.Domain)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got.Bio = ""
	got.Interests = []string{"go", "music"}
	got.Term = 4
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "music"}, again.Interests)
	assert.Equal(t, 4, again.Term)

	ok, err := repo.Exists(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}
