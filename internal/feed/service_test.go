package feed_test

import (
	"testing"
	"time"

	appkafka "example.com/murmurfeed/internal/broker"
	"example.com/murmurfeed/internal/feed"
	"example.com/murmurfeed/internal/models"
	"example.com/murmurfeed/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*feed.Service, *store.MockStore, *appkafka.MockKafka) {
	t.Helper()
	st := store.NewMock()
	broker := &appkafka.MockKafka{}
	return feed.New(st, broker), st, broker
}

func registerUser(t *testing.T, svc *feed.Service, name string) string {
	t.Helper()
	u, err := svc.Register(name, name, name+"@example.com", "")
	require.Nil(t, err)
	return u.ID
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)

	cases := []struct {
		name     string
		username string
		email    string
		bio      string
	}{
		{"", "validname", "a@b.com", ""},
		{"Alice", "ab", "a@b.com", ""},
		{"Alice", "this_username_is_way_too_long", "a@b.com", ""},
		{"Alice", "bad name!", "a@b.com", ""},
		{"Alice", "alice", "not-an-email", ""},
		{"Alice", "alice", "a@b.com", string(make([]byte, 200))},
	}
	for _, c := range cases {
		_, err := svc.Register(c.name, c.username, c.email, c.bio)
		require.NotNil(t, err, "expected validation error for %+v", c)
		assert.Equal(t, feed.KindValidation, err.Kind)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)

	registerUser(t, svc, "alice")
	_, err := svc.Register("Alice Again", "alice", "alice2@example.com", "")
	require.NotNil(t, err)
	assert.Equal(t, feed.KindConflict, err.Kind)
}

func TestCreateFollow_Succeeds(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")

	counts, err := svc.CreateFollow(a, b)
	require.Nil(t, err)
	assert.Equal(t, 1, counts.FollowersCount)
	assert.Equal(t, 0, counts.FollowingCount)

	following, serr := st.IsFollowing(a, b)
	require.NoError(t, serr)
	assert.True(t, following)
}

func TestCreateFollow_SelfFollow(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerUser(t, svc, "alice")

	_, err := svc.CreateFollow(a, a)
	require.NotNil(t, err)
	assert.Equal(t, feed.KindValidation, err.Kind)

	// Regardless of prior state.
	b := registerUser(t, svc, "bob")
	_, err = svc.CreateFollow(a, b)
	require.Nil(t, err)
	_, err = svc.CreateFollow(a, a)
	require.NotNil(t, err)
	assert.Equal(t, feed.KindValidation, err.Kind)
}

func TestCreateFollow_Duplicate(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")

	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)

	// Re-following is a Conflict, but the edge stays intact and is
	// never double-counted.
	_, err = svc.CreateFollow(a, b)
	require.NotNil(t, err)
	assert.Equal(t, feed.KindConflict, err.Kind)

	following, serr := st.IsFollowing(a, b)
	require.NoError(t, serr)
	assert.True(t, following)

	n, serr := st.FollowerCount(b)
	require.NoError(t, serr)
	assert.Equal(t, 1, n)
}

func TestCreateFollow_UnknownTarget(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerUser(t, svc, "alice")

	_, err := svc.CreateFollow(a, "missing")
	require.NotNil(t, err)
	assert.Equal(t, feed.KindNotFound, err.Kind)
}

func TestRemoveFollow_NotFollowing(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")

	_, err := svc.RemoveFollow(a, b)
	require.NotNil(t, err)
	assert.Equal(t, feed.KindConflict, err.Kind)

	// No side effect.
	assert.Empty(t, st.Follows)
}

func TestFollowUnfollow_RoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")

	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)

	counts, err := svc.RemoveFollow(a, b)
	require.Nil(t, err)
	assert.Equal(t, 0, counts.FollowersCount)
}

func TestLikes_CountDistinctUsers(t *testing.T) {
	svc, _, _ := newTestService(t)
	author := registerUser(t, svc, "author")
	view, err := svc.CreateMurmur(author, "hello")
	require.Nil(t, err)

	users := []string{
		registerUser(t, svc, "fan1"),
		registerUser(t, svc, "fan2"),
		registerUser(t, svc, "fan3"),
	}
	for _, u := range users {
		res, err := svc.CreateLike(u, view.ID)
		require.Nil(t, err)
		assert.Positive(t, res.LikeCount)
	}

	// Liking twice by the same user does not exceed N.
	_, err = svc.CreateLike(users[0], view.ID)
	require.NotNil(t, err)
	assert.Equal(t, feed.KindConflict, err.Kind)

	res, err := svc.RemoveLike(users[1], view.ID)
	require.Nil(t, err)
	assert.Equal(t, 2, res.LikeCount)
}

func TestLike_MurmurNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := registerUser(t, svc, "alice")

	_, err := svc.CreateLike(u, "missing")
	require.NotNil(t, err)
	assert.Equal(t, feed.KindNotFound, err.Kind)
}

func TestUnlike_NotLiked(t *testing.T) {
	svc, _, _ := newTestService(t)
	author := registerUser(t, svc, "author")
	view, err := svc.CreateMurmur(author, "hello")
	require.Nil(t, err)

	u := registerUser(t, svc, "alice")
	_, serr := svc.RemoveLike(u, view.ID)
	require.NotNil(t, serr)
	assert.Equal(t, feed.KindConflict, serr.Kind)
}

func TestCreateMurmur_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	u := registerUser(t, svc, "alice")

	_, err := svc.CreateMurmur(u, "")
	require.NotNil(t, err)
	assert.Equal(t, feed.KindValidation, err.Kind)

	long := make([]rune, 281)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.CreateMurmur(u, string(long))
	require.NotNil(t, err)
	assert.Equal(t, feed.KindValidation, err.Kind)

	// 280 runes exactly is fine, multibyte included.
	ok := make([]rune, 280)
	for i := range ok {
		ok[i] = 'ñ'
	}
	view, err := svc.CreateMurmur(u, string(ok))
	require.Nil(t, err)
	assert.Equal(t, 0, view.LikeCount)
	assert.False(t, view.LikedByCurrentUser)
	assert.Equal(t, u, view.Author.ID)
}

func TestDeleteMurmur_FoldsOwnershipIntoNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	author := registerUser(t, svc, "author")
	other := registerUser(t, svc, "other")
	view, err := svc.CreateMurmur(author, "hello")
	require.Nil(t, err)

	// Someone else's murmur reports the same NotFound as a missing one.
	errOther := svc.DeleteMurmur(other, view.ID)
	require.NotNil(t, errOther)
	errMissing := svc.DeleteMurmur(author, "missing")
	require.NotNil(t, errMissing)
	assert.Equal(t, errMissing.Kind, errOther.Kind)
	assert.Equal(t, errMissing.Message, errOther.Message)
}

func TestDeleteMurmur_CascadesLikes(t *testing.T) {
	svc, st, _ := newTestService(t)
	author := registerUser(t, svc, "author")
	fan := registerUser(t, svc, "fan")

	view, err := svc.CreateMurmur(author, "hello")
	require.Nil(t, err)
	_, err = svc.CreateLike(fan, view.ID)
	require.Nil(t, err)

	require.Nil(t, svc.DeleteMurmur(author, view.ID))

	assert.Empty(t, st.Likes)
	_, serr := st.MurmurByID(view.ID)
	assert.ErrorIs(t, serr, store.ErrMurmurNotFound)
}

func TestDeleteAccount_Cascades(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")

	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)
	_, err = svc.CreateFollow(b, a)
	require.Nil(t, err)

	view, err := svc.CreateMurmur(a, "mine")
	require.Nil(t, err)
	_, err = svc.CreateLike(b, view.ID)
	require.Nil(t, err)

	bView, err := svc.CreateMurmur(b, "theirs")
	require.Nil(t, err)
	_, err = svc.CreateLike(a, bView.ID)
	require.Nil(t, err)

	require.Nil(t, svc.DeleteAccount(a))

	assert.Empty(t, st.Follows)
	assert.Empty(t, st.Likes)
	_, serr := st.MurmurByID(view.ID)
	assert.ErrorIs(t, serr, store.ErrMurmurNotFound)

	// Bob's murmur survives, just without Alice's like.
	_, serr = st.MurmurByID(bView.ID)
	assert.NoError(t, serr)
	n, serr := st.LikeCount(bView.ID)
	require.NoError(t, serr)
	assert.Equal(t, 0, n)
}

func TestMutations_PublishEvents(t *testing.T) {
	svc, _, broker := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")

	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)
	view, err := svc.CreateMurmur(b, "hello")
	require.Nil(t, err)
	_, err = svc.CreateLike(a, view.ID)
	require.Nil(t, err)

	require.Len(t, broker.WrittenMessages, 3)
	kinds := make([]string, 0, 3)
	for _, msg := range broker.WrittenMessages {
		kinds = append(kinds, string(msg.Key))
	}
	assert.Equal(t, []string{
		string(models.EventFollowCreated),
		string(models.EventMurmurCreated),
		string(models.EventLikeCreated),
	}, kinds)
}

func TestMutations_SurviveBrokerFailure(t *testing.T) {
	st := store.NewMock()
	svc := feed.New(st, &appkafka.MockKafkaFail{})

	u, err := svc.Register("Alice", "alice", "alice@example.com", "")
	require.Nil(t, err)

	// Publishing is best-effort: the murmur is durably written even
	// when the broker is down.
	view, err := svc.CreateMurmur(u.ID, "hello")
	require.Nil(t, err)
	_, serr := st.MurmurByID(view.ID)
	assert.NoError(t, serr)
}

func TestProfile_Counts(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")
	c := registerUser(t, svc, "carol")

	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)
	_, err = svc.CreateFollow(c, b)
	require.Nil(t, err)
	_, err = svc.CreateFollow(b, a)
	require.Nil(t, err)

	p, err := svc.Profile(a, b)
	require.Nil(t, err)
	assert.Equal(t, 2, p.FollowersCount)
	assert.Equal(t, 1, p.FollowingCount)
	assert.True(t, p.IsFollowing)
	assert.False(t, p.IsCurrentUser)
	assert.NotEmpty(t, p.AvatarRef)

	own, err := svc.Profile(a, a)
	require.Nil(t, err)
	assert.True(t, own.IsCurrentUser)
}

func TestStorageFailure_IsUnavailable(t *testing.T) {
	svc := feed.New(&store.MockStoreFail{}, nil)

	_, err := svc.CreateFollow("a", "b")
	require.NotNil(t, err)
	assert.Equal(t, feed.KindUnavailable, err.Kind)

	_, err = svc.Timeline("a", 1)
	require.NotNil(t, err)
	assert.Equal(t, feed.KindUnavailable, err.Kind)
}

// addMurmur seeds a murmur with an explicit id and timestamp, bypassing
// the server-assigned ones, for ordering tests.
func addMurmur(t *testing.T, st *store.MockStore, id, authorID, content string, at time.Time) {
	t.Helper()
	require.NoError(t, st.AddMurmur(models.Murmur{
		ID:       id,
		AuthorID: authorID,
		Content:  content,
		Created:  at,
	}))
}
