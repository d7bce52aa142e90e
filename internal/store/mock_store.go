package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"example.com/murmurfeed/internal/models"
)

// MockStore simulates the Cassandra store for testing. Edges live in
// pair-keyed maps so membership checks stay index-backed, like the
// real tables.
type MockStore struct {
	mu sync.Mutex

	Users         map[string]models.User
	Follows       map[models.FollowEdge]bool
	Likes         map[models.LikeEdge]bool
	Murmurs       map[string]models.Murmur
	Notifications map[string][]models.Notification
	ShouldFail    bool // flag to simulate failures

	userCounter int
}

// NewMock initializes a new mock store
func NewMock() *MockStore {
	return &MockStore{
		Users:         make(map[string]models.User),
		Follows:       make(map[models.FollowEdge]bool),
		Likes:         make(map[models.LikeEdge]bool),
		Murmurs:       make(map[string]models.Murmur),
		Notifications: make(map[string][]models.Notification),
	}
}

func (m *MockStore) Close() {}

func (m *MockStore) fail() error {
	if m.ShouldFail {
		return errors.New("mock: store failed")
	}
	return nil
}

// --- Users ---

func (m *MockStore) CreateUser(u models.User) (string, error) {
	if err := m.fail(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Users {
		if existing.Username == u.Username {
			return "", ErrUsernameTaken
		}
		if existing.Email == u.Email {
			return "", ErrEmailTaken
		}
	}
	if u.ID == "" {
		m.userCounter++
		u.ID = fmt.Sprintf("user_%d", m.userCounter)
	}
	m.Users[u.ID] = u
	return u.ID, nil
}

func (m *MockStore) UserByID(userID string) (models.User, error) {
	if err := m.fail(); err != nil {
		return models.User{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[userID]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MockStore) DeleteUser(userID string) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	if _, ok := m.Users[userID]; !ok {
		m.mu.Unlock()
		return ErrUserNotFound
	}
	var owned []string
	for id, mur := range m.Murmurs {
		if mur.AuthorID == userID {
			owned = append(owned, id)
		}
	}
	m.mu.Unlock()

	for _, id := range owned {
		if err := m.DeleteMurmur(userID, id); err != nil && err != ErrMurmurNotFound {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for edge := range m.Likes {
		if edge.UserID == userID {
			delete(m.Likes, edge)
		}
	}
	for edge := range m.Follows {
		if edge.FollowerID == userID || edge.FollowedID == userID {
			delete(m.Follows, edge)
		}
	}
	delete(m.Users, userID)
	return nil
}

// --- Social graph ---

func (m *MockStore) CreateFollow(followerID, followedID string) error {
	if err := m.fail(); err != nil {
		return err
	}
	if followerID == followedID {
		return ErrSelfFollow
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	edge := models.FollowEdge{FollowerID: followerID, FollowedID: followedID}
	if m.Follows[edge] {
		return ErrAlreadyFollowing
	}
	m.Follows[edge] = true
	return nil
}

func (m *MockStore) DeleteFollow(followerID, followedID string) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	edge := models.FollowEdge{FollowerID: followerID, FollowedID: followedID}
	if !m.Follows[edge] {
		return ErrNotFollowing
	}
	delete(m.Follows, edge)
	return nil
}

func (m *MockStore) IsFollowing(followerID, followedID string) (bool, error) {
	if err := m.fail(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Follows[models.FollowEdge{FollowerID: followerID, FollowedID: followedID}], nil
}

func (m *MockStore) FollowingIDs(userID string) ([]string, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []string
	for edge := range m.Follows {
		if edge.FollowerID == userID {
			res = append(res, edge.FollowedID)
		}
	}
	return res, nil
}

func (m *MockStore) FollowerIDs(userID string) ([]string, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []string
	for edge := range m.Follows {
		if edge.FollowedID == userID {
			res = append(res, edge.FollowerID)
		}
	}
	return res, nil
}

func (m *MockStore) FollowingCount(userID string) (int, error) {
	ids, err := m.FollowingIDs(userID)
	return len(ids), err
}

func (m *MockStore) FollowerCount(userID string) (int, error) {
	ids, err := m.FollowerIDs(userID)
	return len(ids), err
}

// --- Murmurs ---

func (m *MockStore) AddMurmur(mur models.Murmur) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Murmurs[mur.ID] = mur
	return nil
}

func (m *MockStore) MurmurByID(murmurID string) (models.Murmur, error) {
	if err := m.fail(); err != nil {
		return models.Murmur{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mur, ok := m.Murmurs[murmurID]
	if !ok {
		return models.Murmur{}, ErrMurmurNotFound
	}
	return mur, nil
}

func (m *MockStore) DeleteMurmur(authorID, murmurID string) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mur, ok := m.Murmurs[murmurID]
	if !ok || mur.AuthorID != authorID {
		return ErrMurmurNotFound
	}
	for edge := range m.Likes {
		if edge.MurmurID == murmurID {
			delete(m.Likes, edge)
		}
	}
	delete(m.Murmurs, murmurID)
	return nil
}

func (m *MockStore) MurmursByAuthor(authorID string) ([]models.Murmur, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []models.Murmur
	for _, mur := range m.Murmurs {
		if mur.AuthorID == authorID {
			res = append(res, mur)
		}
	}
	// Newest first, like the clustered table.
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Created.Equal(res[j].Created) {
			return res[i].Created.After(res[j].Created)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

// --- Likes ---

func (m *MockStore) CreateLike(userID, murmurID string) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Murmurs[murmurID]; !ok {
		return ErrMurmurNotFound
	}
	edge := models.LikeEdge{UserID: userID, MurmurID: murmurID}
	if m.Likes[edge] {
		return ErrAlreadyLiked
	}
	m.Likes[edge] = true
	return nil
}

func (m *MockStore) DeleteLike(userID, murmurID string) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Murmurs[murmurID]; !ok {
		return ErrMurmurNotFound
	}
	edge := models.LikeEdge{UserID: userID, MurmurID: murmurID}
	if !m.Likes[edge] {
		return ErrNotLiked
	}
	delete(m.Likes, edge)
	return nil
}

func (m *MockStore) LikedBy(userID, murmurID string) (bool, error) {
	if err := m.fail(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Likes[models.LikeEdge{UserID: userID, MurmurID: murmurID}], nil
}

func (m *MockStore) LikeCount(murmurID string) (int, error) {
	if err := m.fail(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for edge := range m.Likes {
		if edge.MurmurID == murmurID {
			n++
		}
	}
	return n, nil
}

// --- Notifications ---

func (m *MockStore) AddNotification(n models.Notification) error {
	if err := m.fail(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications[n.UserID] = append(m.Notifications[n.UserID], n)
	return nil
}

func (m *MockStore) NotificationsByUser(userID string, limit int) ([]models.Notification, error) {
	if err := m.fail(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res := append([]models.Notification(nil), m.Notifications[userID]...)
	sort.Slice(res, func(i, j int) bool {
		return res[i].Created.After(res[j].Created)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// ---------------------------------------------
// MockStoreFail always returns errors for negative tests
type MockStoreFail struct{}

var errMockStore = errors.New("mock store failed")

func (m *MockStoreFail) Close() {}

func (m *MockStoreFail) CreateUser(u models.User) (string, error) {
	return "", errMockStore
}
func (m *MockStoreFail) UserByID(string) (models.User, error) {
	return models.User{}, errMockStore
}
func (m *MockStoreFail) DeleteUser(string) error               { return errMockStore }
func (m *MockStoreFail) CreateFollow(_, _ string) error        { return errMockStore }
func (m *MockStoreFail) DeleteFollow(_, _ string) error        { return errMockStore }
func (m *MockStoreFail) IsFollowing(_, _ string) (bool, error) { return false, errMockStore }
func (m *MockStoreFail) FollowingIDs(string) ([]string, error) { return nil, errMockStore }
func (m *MockStoreFail) FollowerIDs(string) ([]string, error)  { return nil, errMockStore }
func (m *MockStoreFail) FollowingCount(string) (int, error)    { return 0, errMockStore }
func (m *MockStoreFail) FollowerCount(string) (int, error)     { return 0, errMockStore }
func (m *MockStoreFail) AddMurmur(models.Murmur) error         { return errMockStore }
func (m *MockStoreFail) MurmurByID(string) (models.Murmur, error) {
	return models.Murmur{}, errMockStore
}
func (m *MockStoreFail) DeleteMurmur(_, _ string) error                  { return errMockStore }
func (m *MockStoreFail) MurmursByAuthor(string) ([]models.Murmur, error) { return nil, errMockStore }
func (m *MockStoreFail) CreateLike(_, _ string) error                    { return errMockStore }
func (m *MockStoreFail) DeleteLike(_, _ string) error                    { return errMockStore }
func (m *MockStoreFail) LikedBy(_, _ string) (bool, error)               { return false, errMockStore }
func (m *MockStoreFail) LikeCount(string) (int, error)                   { return 0, errMockStore }
func (m *MockStoreFail) AddNotification(models.Notification) error       { return errMockStore }
func (m *MockStoreFail) NotificationsByUser(string, int) ([]models.Notification, error) {
	return nil, errMockStore
}
