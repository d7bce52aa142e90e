package store

import "errors"

// Sentinel errors for the relational invariants. The service layer maps
// these onto caller-facing error kinds; everything else coming out of the
// store is treated as storage unavailability.
var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
	ErrAlreadyLiked     = errors.New("already liked this murmur")
	ErrNotLiked         = errors.New("murmur not liked yet")
	ErrUserNotFound     = errors.New("user not found")
	ErrMurmurNotFound   = errors.New("murmur not found")
	ErrUsernameTaken    = errors.New("username is already taken")
	ErrEmailTaken       = errors.New("email is already taken")
)
