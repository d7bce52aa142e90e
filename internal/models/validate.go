package models

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

const (
	MaxContentLen  = 280
	MaxBioLen      = 160
	MaxNameLen     = 50
	MinUsernameLen = 3
	MaxUsernameLen = 20
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateContent checks a murmur body before any write is attempted.
// Lengths are counted in runes, not bytes.
func ValidateContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return errors.New("content can't be blank")
	}
	if n > MaxContentLen {
		return errors.New("content is too long (maximum is 280 characters)")
	}
	return nil
}

// ValidateUser checks registration input. Uniqueness of username and
// email is enforced separately by the store.
func ValidateUser(u User) error {
	if n := utf8.RuneCountInString(u.Name); n == 0 || n > MaxNameLen {
		return errors.New("name must be 1-50 characters")
	}
	n := utf8.RuneCountInString(u.Username)
	if n < MinUsernameLen || n > MaxUsernameLen {
		return errors.New("username must be 3-20 characters")
	}
	if !usernameRegex.MatchString(u.Username) {
		return errors.New("username only allows letters, numbers and underscore")
	}
	if !emailRegex.MatchString(u.Email) {
		return errors.New("email is invalid")
	}
	if utf8.RuneCountInString(u.Bio) > MaxBioLen {
		return errors.New("bio is too long (maximum is 160 characters)")
	}
	return nil
}
