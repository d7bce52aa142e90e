package store

import (
	"example.com/murmurfeed/internal/models"
	"github.com/gocql/gocql"
)

// --- Murmur operations ---
//
// murmurs is the by-id lookup table; murmurs_by_author clusters each
// author's partition by (created_at DESC, murmur_id DESC), so
// MurmursByAuthor comes back already in feed order.

// AddMurmur persists a murmur into both tables.
func (s *Store) AddMurmur(m models.Murmur) error {
	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`
		INSERT INTO murmurs (murmur_id, author_id, content, created_at)
		VALUES (?, ?, ?, ?)`,
		m.ID, m.AuthorID, m.Content, m.Created,
	)
	batch.Query(`
		INSERT INTO murmurs_by_author (author_id, created_at, murmur_id, content)
		VALUES (?, ?, ?, ?)`,
		m.AuthorID, m.Created, m.ID, m.Content,
	)
	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to add murmur", err)
		return err
	}

	logg.Info("store", "Murmur added (content anonymized)")
	return nil
}

// MurmurByID returns the murmur or ErrMurmurNotFound.
func (s *Store) MurmurByID(murmurID string) (models.Murmur, error) {
	var m models.Murmur
	err := s.Session.Query(`
		SELECT murmur_id, author_id, content, created_at
		FROM murmurs WHERE murmur_id = ?`,
		murmurID,
	).Scan(&m.ID, &m.AuthorID, &m.Content, &m.Created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return models.Murmur{}, ErrMurmurNotFound
		}
		logg.Error("store", "Failed to query murmur by id", err)
		return models.Murmur{}, err
	}
	return m, nil
}

// DeleteMurmur removes a murmur owned by authorID and cascades the
// deletion of its likes. A murmur owned by someone else is reported as
// ErrMurmurNotFound, same as a nonexistent one.
func (s *Store) DeleteMurmur(authorID, murmurID string) error {
	m, err := s.MurmurByID(murmurID)
	if err != nil {
		return err
	}
	if m.AuthorID != authorID {
		return ErrMurmurNotFound
	}

	if err := s.deleteLikesForMurmur(murmurID); err != nil {
		return err
	}

	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`DELETE FROM murmurs WHERE murmur_id = ?`, murmurID)
	batch.Query(`
		DELETE FROM murmurs_by_author
		WHERE author_id = ? AND created_at = ? AND murmur_id = ?`,
		m.AuthorID, m.Created, m.ID,
	)
	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to delete murmur", err)
		return err
	}

	logg.Info("store", "Murmur deleted with its likes (IDs anonymized)")
	return nil
}

// MurmursByAuthor returns the author's murmurs, newest first.
func (s *Store) MurmursByAuthor(authorID string) ([]models.Murmur, error) {
	iter := s.Session.Query(`
		SELECT murmur_id, created_at, content
		FROM murmurs_by_author WHERE author_id = ?`,
		authorID,
	).Iter()

	var res []models.Murmur
	var m models.Murmur
	for iter.Scan(&m.ID, &m.Created, &m.Content) {
		m.AuthorID = authorID
		res = append(res, m)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to get murmurs by author", err)
		return nil, err
	}
	return res, nil
}
