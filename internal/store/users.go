package store

import (
	"example.com/murmurfeed/internal/models"
	"github.com/gocql/gocql"
)

// --- User operations ---

// CreateUser registers a new user. Username and email uniqueness are
// enforced by CAS inserts into the lookup tables; the loser of a
// concurrent race observes the same ErrUsernameTaken / ErrEmailTaken
// as a plain duplicate.
func (s *Store) CreateUser(u models.User) (string, error) {
	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		INSERT INTO users_by_username (username, user_id)
		VALUES (?, ?) IF NOT EXISTS`,
		u.Username, u.ID,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to reserve username", err)
		return "", err
	}
	if !applied {
		return "", ErrUsernameTaken
	}

	result = make(map[string]interface{})
	applied, err = s.Session.Query(`
		INSERT INTO users_by_email (email, user_id)
		VALUES (?, ?) IF NOT EXISTS`,
		u.Email, u.ID,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to reserve email", err)
		return "", err
	}
	if !applied {
		// Roll back the username reservation so the name stays available.
		_ = s.Session.Query(
			`DELETE FROM users_by_username WHERE username = ?`, u.Username,
		).Exec()
		return "", ErrEmailTaken
	}

	err = s.Session.Query(`
		INSERT INTO users (user_id, name, username, email, bio, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Username, u.Email, u.Bio, u.Created,
	).Exec()
	if err != nil {
		logg.Error("store", "Failed to create user in main table", err)
		return "", err
	}

	logg.Info("store", "User created successfully (username anonymized)")
	return u.ID, nil
}

// UserByID returns the user record or ErrUserNotFound.
func (s *Store) UserByID(userID string) (models.User, error) {
	var u models.User
	err := s.Session.Query(`
		SELECT user_id, name, username, email, bio, created_at
		FROM users WHERE user_id = ?`,
		userID,
	).Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Bio, &u.Created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return models.User{}, ErrUserNotFound
		}
		logg.Error("store", "Failed to query user by id", err)
		return models.User{}, err
	}
	return u, nil
}

// DeleteUser removes the user and cascades: their murmurs (with those
// murmurs' likes), their own likes, and both directions of follow edges.
func (s *Store) DeleteUser(userID string) error {
	u, err := s.UserByID(userID)
	if err != nil {
		return err
	}

	murmurs, err := s.MurmursByAuthor(userID)
	if err != nil {
		return err
	}
	for _, m := range murmurs {
		if err := s.DeleteMurmur(userID, m.ID); err != nil && err != ErrMurmurNotFound {
			return err
		}
	}

	liked, err := s.likedMurmurIDs(userID)
	if err != nil {
		return err
	}
	for _, mid := range liked {
		if err := s.DeleteLike(userID, mid); err != nil && err != ErrNotLiked {
			return err
		}
	}

	following, err := s.FollowingIDs(userID)
	if err != nil {
		return err
	}
	for _, fid := range following {
		if err := s.DeleteFollow(userID, fid); err != nil && err != ErrNotFollowing {
			return err
		}
	}
	followers, err := s.FollowerIDs(userID)
	if err != nil {
		return err
	}
	for _, fid := range followers {
		if err := s.DeleteFollow(fid, userID); err != nil && err != ErrNotFollowing {
			return err
		}
	}

	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`DELETE FROM users WHERE user_id = ?`, userID)
	batch.Query(`DELETE FROM users_by_username WHERE username = ?`, u.Username)
	batch.Query(`DELETE FROM users_by_email WHERE email = ?`, u.Email)
	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to delete user rows", err)
		return err
	}

	logg.Info("store", "User deleted with cascades (user ID anonymized)")
	return nil
}
