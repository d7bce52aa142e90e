package feed

import (
	"fmt"
	"hash/fnv"
	"time"

	"example.com/murmurfeed/internal/models"
)

// AuthorView is the denormalized author summary attached to each murmur.
type AuthorView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	AvatarRef string `json:"avatar_ref"`
}

// MurmurView is a murmur enriched at the boundary with engagement data
// relative to the requesting identity.
type MurmurView struct {
	ID                 string     `json:"id"`
	Content            string     `json:"content"`
	Created            time.Time  `json:"created_at"`
	LikeCount          int        `json:"like_count"`
	LikedByCurrentUser bool       `json:"liked_by_current_user"`
	Author             AuthorView `json:"author"`
}

// Pagination is the envelope returned with every murmur listing.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalCount  int `json:"total_count"`
}

// MurmurPage is a single page of an ordered feed.
type MurmurPage struct {
	Murmurs    []MurmurView `json:"murmurs"`
	Pagination Pagination   `json:"pagination"`
}

// FollowCounts is returned by follow/unfollow; both counts are the
// target user's, recomputed live.
type FollowCounts struct {
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
}

// LikeResult carries the live like count after a like/unlike.
type LikeResult struct {
	LikeCount int `json:"like_count"`
}

// ProfileView is the user summary with derived counts.
type ProfileView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Bio            string `json:"bio,omitempty"`
	AvatarRef      string `json:"avatar_ref"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
	IsCurrentUser  bool   `json:"is_current_user"`
}

// avatarRef derives a stable default avatar from the user id; avatars
// are not stored.
func avatarRef(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return fmt.Sprintf("avatars/avatar%d.jpg", h.Sum32()%6+1)
}

func authorView(u models.User) AuthorView {
	return AuthorView{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		AvatarRef: avatarRef(u.ID),
	}
}
