package store

import (
	"sync"
	"testing"
	"time"

	"example.com/murmurfeed/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two concurrent follow calls for the same pair race on the unique-pair
// constraint: exactly one wins, the rest observe the duplicate error,
// and the end state is a single edge either way.
func TestConcurrentFollow_ExactlyOneWins(t *testing.T) {
	st := NewMock()

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- st.CreateFollow("a", "b")
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch err {
		case nil:
			wins++
		case ErrAlreadyFollowing:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)

	following, err := st.IsFollowing("a", "b")
	require.NoError(t, err)
	assert.True(t, following)

	n, err := st.FollowerCount("b")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcurrentLike_NeverDoubleCounts(t *testing.T) {
	st := NewMock()
	require.NoError(t, st.AddMurmur(models.Murmur{
		ID:       "m1",
		AuthorID: "author",
		Content:  "hello",
		Created:  time.Now(),
	}))

	const attempts = 16
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.CreateLike("fan", "m1")
		}()
	}
	wg.Wait()

	n, err := st.LikeCount("m1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMock_FollowToggle(t *testing.T) {
	st := NewMock()

	require.ErrorIs(t, st.CreateFollow("a", "a"), ErrSelfFollow)
	require.NoError(t, st.CreateFollow("a", "b"))
	require.ErrorIs(t, st.CreateFollow("a", "b"), ErrAlreadyFollowing)
	require.NoError(t, st.DeleteFollow("a", "b"))
	require.ErrorIs(t, st.DeleteFollow("a", "b"), ErrNotFollowing)

	// Directed, no implicit reciprocity.
	require.NoError(t, st.CreateFollow("b", "a"))
	following, err := st.IsFollowing("a", "b")
	require.NoError(t, err)
	assert.False(t, following)
}
