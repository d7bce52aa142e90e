package store

import (
	"example.com/murmurfeed/internal/models"
)

// --- Notification operations ---
//
// Written by the worker, read by the HTTP layer. The partition is the
// recipient, clustered newest first.

func (s *Store) AddNotification(n models.Notification) error {
	if err := s.Session.Query(`
		INSERT INTO notifications_by_user
			(user_id, created_at, notification_id, kind, actor_id, murmur_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Created, n.ID, string(n.Kind), n.ActorID, n.MurmurID,
	).Exec(); err != nil {
		logg.Error("store", "Failed to add notification", err)
		return err
	}
	return nil
}

func (s *Store) NotificationsByUser(userID string, limit int) ([]models.Notification, error) {
	iter := s.Session.Query(`
		SELECT notification_id, created_at, kind, actor_id, murmur_id
		FROM notifications_by_user WHERE user_id = ? LIMIT ?`,
		userID, limit,
	).Iter()

	var res []models.Notification
	var n models.Notification
	var kind string
	for iter.Scan(&n.ID, &n.Created, &kind, &n.ActorID, &n.MurmurID) {
		n.UserID = userID
		n.Kind = models.NotificationKind(kind)
		res = append(res, n)
	}
	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to get notifications", err)
		return nil, err
	}
	return res, nil
}
