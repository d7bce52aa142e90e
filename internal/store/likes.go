package store

import (
	"github.com/gocql/gocql"
)

// --- Like operations ---
//
// likes_by_murmur, keyed by (murmur_id, user_id), is the authoritative
// like edge: LikeCount is a partition count and LikedBy a point read.
// likes_by_user is the inverse index used for user-delete cascades.

// CreateLike inserts a like edge. The murmur must exist; duplicates —
// including a lost concurrent race — return ErrAlreadyLiked.
func (s *Store) CreateLike(userID, murmurID string) error {
	if _, err := s.MurmurByID(murmurID); err != nil {
		return err
	}

	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		INSERT INTO likes_by_murmur (murmur_id, user_id)
		VALUES (?, ?) IF NOT EXISTS`,
		murmurID, userID,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to create like edge", err)
		return err
	}
	if !applied {
		return ErrAlreadyLiked
	}

	if err := s.Session.Query(`
		INSERT INTO likes_by_user (user_id, murmur_id)
		VALUES (?, ?)`,
		userID, murmurID,
	).Exec(); err != nil {
		logg.Error("store", "Failed to update like index", err)
		return err
	}

	logg.Info("store", "Like edge created (IDs anonymized)")
	return nil
}

// DeleteLike removes the edge, returning ErrNotLiked when absent.
func (s *Store) DeleteLike(userID, murmurID string) error {
	if _, err := s.MurmurByID(murmurID); err != nil {
		return err
	}

	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		DELETE FROM likes_by_murmur WHERE murmur_id = ? AND user_id = ? IF EXISTS`,
		murmurID, userID,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to delete like edge", err)
		return err
	}
	if !applied {
		return ErrNotLiked
	}

	if err := s.Session.Query(`
		DELETE FROM likes_by_user WHERE user_id = ? AND murmur_id = ?`,
		userID, murmurID,
	).Exec(); err != nil {
		logg.Error("store", "Failed to update like index", err)
		return err
	}

	logg.Info("store", "Like edge removed (IDs anonymized)")
	return nil
}

// LikedBy is a point read on the full primary key.
func (s *Store) LikedBy(userID, murmurID string) (bool, error) {
	var id string
	err := s.Session.Query(`
		SELECT user_id FROM likes_by_murmur WHERE murmur_id = ? AND user_id = ?`,
		murmurID, userID,
	).Scan(&id)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, nil
		}
		logg.Error("store", "Failed to check like edge", err)
		return false, err
	}
	return true, nil
}

// LikeCount is a live partition count, never cached.
func (s *Store) LikeCount(murmurID string) (int, error) {
	var n int
	err := s.Session.Query(
		`SELECT COUNT(*) FROM likes_by_murmur WHERE murmur_id = ?`,
		murmurID,
	).Scan(&n)
	if err != nil {
		logg.Error("store", "Failed to count likes", err)
		return 0, err
	}
	return n, nil
}

// likedMurmurIDs lists the murmurs a user has liked, for cascades.
func (s *Store) likedMurmurIDs(userID string) ([]string, error) {
	iter := s.Session.Query(
		`SELECT murmur_id FROM likes_by_user WHERE user_id = ?`,
		userID,
	).Iter()

	var id string
	var res []string
	for iter.Scan(&id) {
		res = append(res, id)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to get liked murmurs", err)
		return nil, err
	}
	return res, nil
}

// deleteLikesForMurmur drops the murmur's like partition and the
// corresponding inverse-index rows.
func (s *Store) deleteLikesForMurmur(murmurID string) error {
	iter := s.Session.Query(
		`SELECT user_id FROM likes_by_murmur WHERE murmur_id = ?`,
		murmurID,
	).Iter()

	var id string
	var likers []string
	for iter.Scan(&id) {
		likers = append(likers, id)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to list likers for cascade", err)
		return err
	}

	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`DELETE FROM likes_by_murmur WHERE murmur_id = ?`, murmurID)
	for _, uid := range likers {
		batch.Query(
			`DELETE FROM likes_by_user WHERE user_id = ? AND murmur_id = ?`,
			uid, murmurID,
		)
	}
	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to cascade like deletion", err)
		return err
	}
	return nil
}
