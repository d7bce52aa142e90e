package store

import (
	"github.com/gocql/gocql"
)

// --- Social graph operations ---
//
// The follows table, keyed by (follower_id, followed_id), is the
// authoritative edge; followers_by_followee is the inverse index kept in
// step on every mutation. Pair uniqueness is the primary key, duplicate
// detection is the CAS applied flag.

// CreateFollow inserts a directed follow edge. Returns ErrSelfFollow for
// a == b and ErrAlreadyFollowing when the edge exists, including when it
// was created by a concurrent racing insert.
func (s *Store) CreateFollow(followerID, followedID string) error {
	if followerID == followedID {
		return ErrSelfFollow
	}

	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		INSERT INTO follows (follower_id, followed_id)
		VALUES (?, ?) IF NOT EXISTS`,
		followerID, followedID,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to create follow edge", err)
		return err
	}
	if !applied {
		return ErrAlreadyFollowing
	}

	if err := s.Session.Query(`
		INSERT INTO followers_by_followee (followed_id, follower_id)
		VALUES (?, ?)`,
		followedID, followerID,
	).Exec(); err != nil {
		logg.Error("store", "Failed to update follower index", err)
		return err
	}

	logg.Info("store", "Follow edge created (user IDs anonymized)")
	return nil
}

// DeleteFollow removes the edge, returning ErrNotFollowing when it does
// not exist.
func (s *Store) DeleteFollow(followerID, followedID string) error {
	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		DELETE FROM follows WHERE follower_id = ? AND followed_id = ? IF EXISTS`,
		followerID, followedID,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to delete follow edge", err)
		return err
	}
	if !applied {
		return ErrNotFollowing
	}

	if err := s.Session.Query(`
		DELETE FROM followers_by_followee WHERE followed_id = ? AND follower_id = ?`,
		followedID, followerID,
	).Exec(); err != nil {
		logg.Error("store", "Failed to update follower index", err)
		return err
	}

	logg.Info("store", "Follow edge removed (user IDs anonymized)")
	return nil
}

// IsFollowing is a point read on the full primary key, never a scan of
// the loaded following set.
func (s *Store) IsFollowing(followerID, followedID string) (bool, error) {
	var id string
	err := s.Session.Query(`
		SELECT followed_id FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID,
	).Scan(&id)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, nil
		}
		logg.Error("store", "Failed to check follow edge", err)
		return false, err
	}
	return true, nil
}

// FollowingIDs returns the ids the user follows; order is not meaningful.
func (s *Store) FollowingIDs(userID string) ([]string, error) {
	iter := s.Session.Query(
		`SELECT followed_id FROM follows WHERE follower_id = ?`,
		userID,
	).Iter()

	var id string
	var res []string
	for iter.Scan(&id) {
		res = append(res, id)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to get following ids", err)
		return nil, err
	}
	return res, nil
}

// FollowerIDs returns the ids following the user.
func (s *Store) FollowerIDs(userID string) ([]string, error) {
	iter := s.Session.Query(
		`SELECT follower_id FROM followers_by_followee WHERE followed_id = ?`,
		userID,
	).Iter()

	var id string
	var res []string
	for iter.Scan(&id) {
		res = append(res, id)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to get follower ids", err)
		return nil, err
	}
	return res, nil
}

// FollowingCount is computed live from the edge partition; nothing is
// cached, so it cannot go stale.
func (s *Store) FollowingCount(userID string) (int, error) {
	var n int
	err := s.Session.Query(
		`SELECT COUNT(*) FROM follows WHERE follower_id = ?`,
		userID,
	).Scan(&n)
	if err != nil {
		logg.Error("store", "Failed to count following", err)
		return 0, err
	}
	return n, nil
}

// FollowerCount is computed live from the inverse index partition.
func (s *Store) FollowerCount(userID string) (int, error) {
	var n int
	err := s.Session.Query(
		`SELECT COUNT(*) FROM followers_by_followee WHERE followed_id = ?`,
		userID,
	).Scan(&n)
	if err != nil {
		logg.Error("store", "Failed to count followers", err)
		return 0, err
	}
	return n, nil
}
