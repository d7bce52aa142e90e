package models

import "time"

type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Bio      string    `json:"bio,omitempty"`
	Created  time.Time `json:"created_at"`
}

type Murmur struct {
	ID       string    `json:"id"`
	AuthorID string    `json:"author_id"`
	Content  string    `json:"content"`
	Created  time.Time `json:"created_at"`
}

type FollowEdge struct {
	FollowerID string `json:"follower_id"`
	FollowedID string `json:"followed_id"`
}

type LikeEdge struct {
	UserID   string `json:"user_id"`
	MurmurID string `json:"murmur_id"`
}

// EventKind labels the broker messages the server publishes on each
// mutation; the notification worker switches on it.
type EventKind string

const (
	EventFollowCreated EventKind = "follow_created"
	EventLikeCreated   EventKind = "like_created"
	EventMurmurCreated EventKind = "murmur_created"
	EventMurmurDeleted EventKind = "murmur_deleted"
)

// Event is the broker payload. ActorID is always set; SubjectID is the
// followed user for follows, MurmurID the liked/created murmur.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	ActorID   string    `json:"actor_id"`
	SubjectID string    `json:"subject_id,omitempty"`
	MurmurID  string    `json:"murmur_id,omitempty"`
	Created   time.Time `json:"created_at"`
}

type NotificationKind string

const (
	NotifFollowed NotificationKind = "followed"
	NotifLiked    NotificationKind = "liked"
	NotifMurmured NotificationKind = "murmured"
)

// Notification is a per-recipient activity record written by the worker.
type Notification struct {
	ID       string           `json:"id"`
	UserID   string           `json:"user_id"`
	Kind     NotificationKind `json:"kind"`
	ActorID  string           `json:"actor_id"`
	MurmurID string           `json:"murmur_id,omitempty"`
	Created  time.Time        `json:"created_at"`
}
