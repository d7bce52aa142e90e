package feed_test

import (
	"fmt"
	"testing"
	"time"

	"example.com/murmurfeed/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func contents(page feed.MurmurPage) []string {
	res := make([]string, 0, len(page.Murmurs))
	for _, m := range page.Murmurs {
		res = append(res, m.Content)
	}
	return res
}

func TestTimeline_OwnPostsWithoutFollows(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	addMurmur(t, st, "m1", a, "mine", t0)

	page, err := svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Equal(t, []string{"mine"}, contents(page))
	assert.Equal(t, 1, page.Pagination.TotalCount)
}

func TestTimeline_EmptyFirstPageIsValid(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerUser(t, svc, "alice")

	page, err := svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Empty(t, page.Murmurs)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.Equal(t, 0, page.Pagination.TotalCount)
}

func TestTimeline_VisibleAuthorSet(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")
	c := registerUser(t, svc, "carol")

	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)

	addMurmur(t, st, "m1", b, "hello", t0)
	addMurmur(t, st, "m2", c, "world", t0.Add(time.Minute))

	// Carol is not followed: her newer murmur stays invisible.
	page, err := svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Equal(t, []string{"hello"}, contents(page))
	assert.Equal(t, 1, page.Pagination.TotalCount)

	// After unfollow the timeline empties; Alice has posted nothing.
	_, err = svc.RemoveFollow(a, b)
	require.Nil(t, err)
	page, err = svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Empty(t, page.Murmurs)
	assert.Equal(t, 0, page.Pagination.TotalCount)

	// Her own murmur reappears without any follows.
	addMurmur(t, st, "m3", a, "mine", t0.Add(2*time.Minute))
	page, err = svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Equal(t, []string{"mine"}, contents(page))
}

func TestTimeline_ReverseChronologicalOrder(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")
	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)

	addMurmur(t, st, "m1", a, "oldest", t0)
	addMurmur(t, st, "m2", b, "middle", t0.Add(time.Minute))
	addMurmur(t, st, "m3", a, "newest", t0.Add(2*time.Minute))

	page, err := svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Equal(t, []string{"newest", "middle", "oldest"}, contents(page))
}

func TestTimeline_TieBreakByIDDescending(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")

	// Identical timestamps: the higher id wins.
	addMurmur(t, st, "m1", a, "first", t0)
	addMurmur(t, st, "m2", a, "second", t0)
	addMurmur(t, st, "m3", a, "third", t0)

	page, err := svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, contents(page))
}

func TestTimeline_Pagination(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")

	for i := 0; i < 25; i++ {
		addMurmur(t, st, fmt.Sprintf("m%02d", i), a,
			fmt.Sprintf("murmur %d", i), t0.Add(time.Duration(i)*time.Minute))
	}

	page, err := svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Len(t, page.Murmurs, 10)
	assert.Equal(t, "murmur 24", page.Murmurs[0].Content)
	assert.Equal(t, feed.Pagination{CurrentPage: 1, TotalPages: 3, TotalCount: 25}, page.Pagination)

	page, err = svc.Timeline(a, 3)
	require.Nil(t, err)
	assert.Len(t, page.Murmurs, 5)
	assert.Equal(t, "murmur 0", page.Murmurs[4].Content)
	assert.Equal(t, 3, page.Pagination.CurrentPage)

	// A page past totalPages is not an error: empty items, counts intact.
	page, err = svc.Timeline(a, 7)
	require.Nil(t, err)
	assert.Empty(t, page.Murmurs)
	assert.Equal(t, feed.Pagination{CurrentPage: 7, TotalPages: 3, TotalCount: 25}, page.Pagination)

	// Page numbers below one clamp to the first page.
	page, err = svc.Timeline(a, 0)
	require.Nil(t, err)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Len(t, page.Murmurs, 10)
}

func TestTimeline_Enrichment(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")
	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)

	addMurmur(t, st, "m1", b, "hello", t0)
	_, err = svc.CreateLike(a, "m1")
	require.Nil(t, err)
	_, err = svc.CreateLike(b, "m1")
	require.Nil(t, err)

	page, err := svc.Timeline(a, 1)
	require.Nil(t, err)
	require.Len(t, page.Murmurs, 1)

	m := page.Murmurs[0]
	assert.Equal(t, 2, m.LikeCount)
	assert.True(t, m.LikedByCurrentUser)
	assert.Equal(t, b, m.Author.ID)
	assert.Equal(t, "bob", m.Author.Username)
	assert.NotEmpty(t, m.Author.AvatarRef)

	// The same murmur viewed by someone who has not liked it.
	c := registerUser(t, svc, "carol")
	_, err = svc.CreateFollow(c, b)
	require.Nil(t, err)
	page, err = svc.Timeline(c, 1)
	require.Nil(t, err)
	require.Len(t, page.Murmurs, 1)
	assert.False(t, page.Murmurs[0].LikedByCurrentUser)
	assert.Equal(t, 2, page.Murmurs[0].LikeCount)
}

func TestAuthoredBy_OnlyTargetMurmurs(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")
	_, err := svc.CreateFollow(b, a)
	require.Nil(t, err)

	addMurmur(t, st, "m1", b, "bobs", t0)
	addMurmur(t, st, "m2", a, "alices", t0.Add(time.Minute))

	// No "following" expansion: only Bob's own murmurs.
	page, err := svc.AuthoredBy(a, b, 1)
	require.Nil(t, err)
	assert.Equal(t, []string{"bobs"}, contents(page))
	assert.Equal(t, 1, page.Pagination.TotalCount)
}

func TestAuthoredBy_ViewerRelativeEnrichment(t *testing.T) {
	svc, st, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")

	addMurmur(t, st, "m1", b, "bobs", t0)
	_, err := svc.CreateLike(a, "m1")
	require.Nil(t, err)

	// likedByCurrentUser reflects the viewer, not the listed author.
	page, err := svc.AuthoredBy(a, b, 1)
	require.Nil(t, err)
	require.Len(t, page.Murmurs, 1)
	assert.True(t, page.Murmurs[0].LikedByCurrentUser)

	page, err = svc.AuthoredBy(b, b, 1)
	require.Nil(t, err)
	assert.False(t, page.Murmurs[0].LikedByCurrentUser)
}

func TestAuthoredBy_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerUser(t, svc, "alice")

	_, err := svc.AuthoredBy(a, "missing", 1)
	require.NotNil(t, err)
	assert.Equal(t, feed.KindNotFound, err.Kind)
}

func TestDeleteMurmur_RemovesFromTimelines(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := registerUser(t, svc, "alice")
	b := registerUser(t, svc, "bob")
	_, err := svc.CreateFollow(a, b)
	require.Nil(t, err)

	view, err := svc.CreateMurmur(b, "gone soon")
	require.Nil(t, err)
	_, err = svc.CreateLike(a, view.ID)
	require.Nil(t, err)

	require.Nil(t, svc.DeleteMurmur(b, view.ID))

	page, err := svc.Timeline(a, 1)
	require.Nil(t, err)
	assert.Empty(t, page.Murmurs)

	page, err = svc.AuthoredBy(a, b, 1)
	require.Nil(t, err)
	assert.Empty(t, page.Murmurs)
}
