package feed

import (
	"time"

	appkafka "example.com/murmurfeed/internal/broker"
	"example.com/murmurfeed/internal/logger"
	"example.com/murmurfeed/internal/models"
	"example.com/murmurfeed/internal/store"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

var logg = logger.New()

// Service implements the core operations over the social graph,
// engagement store and post store. It holds no state of its own; the
// stores' uniqueness constraints are the only concurrency control.
type Service struct {
	store  store.StoreInterface
	events appkafka.KafkaWriter
}

// New wires the service. The event writer may be nil; publishing is
// best-effort and never fails a mutation.
func New(st store.StoreInterface, events appkafka.KafkaWriter) *Service {
	return &Service{store: st, events: events}
}

func (s *Service) publish(kind models.EventKind, actorID, subjectID, murmurID string) {
	if s.events == nil {
		return
	}
	ev := models.Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		ActorID:   actorID,
		SubjectID: subjectID,
		MurmurID:  murmurID,
		Created:   time.Now().UTC(),
	}
	if err := appkafka.PublishEvent(s.events, ev); err != nil {
		logg.Error("feed", "Failed to publish event", err)
	}
}

// --- Users ---

// Register creates a user after pre-write validation and returns its id.
func (s *Service) Register(name, username, email, bio string) (models.User, *Error) {
	u := models.User{
		ID:       uuid.NewString(),
		Name:     name,
		Username: username,
		Email:    email,
		Bio:      bio,
		Created:  time.Now().UTC(),
	}
	if err := models.ValidateUser(u); err != nil {
		return models.User{}, newError(KindValidation, err.Error())
	}
	if _, err := s.store.CreateUser(u); err != nil {
		return models.User{}, fromStore(err)
	}
	return u, nil
}

// Profile returns the user summary with live counts, relative to the
// viewer.
func (s *Service) Profile(viewerID, targetID string) (ProfileView, *Error) {
	u, err := s.store.UserByID(targetID)
	if err != nil {
		return ProfileView{}, fromStore(err)
	}
	followers, err := s.store.FollowerCount(targetID)
	if err != nil {
		return ProfileView{}, fromStore(err)
	}
	following, err := s.store.FollowingCount(targetID)
	if err != nil {
		return ProfileView{}, fromStore(err)
	}
	isFollowing, err := s.store.IsFollowing(viewerID, targetID)
	if err != nil {
		return ProfileView{}, fromStore(err)
	}
	return ProfileView{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Bio:            u.Bio,
		AvatarRef:      avatarRef(u.ID),
		FollowersCount: followers,
		FollowingCount: following,
		IsFollowing:    isFollowing,
		IsCurrentUser:  viewerID == targetID,
	}, nil
}

// DeleteAccount removes the user and cascades murmurs, likes and follow
// edges in both directions.
func (s *Service) DeleteAccount(actorID string) *Error {
	if err := s.store.DeleteUser(actorID); err != nil {
		return fromStore(err)
	}
	return nil
}

// --- Social graph ---

// CreateFollow adds the directed edge actor -> target and returns the
// target's live counts. Re-following is a Conflict, not a silent no-op;
// a lost concurrent race reports the same Conflict.
func (s *Service) CreateFollow(actorID, targetID string) (FollowCounts, *Error) {
	if _, err := s.store.UserByID(targetID); err != nil {
		return FollowCounts{}, fromStore(err)
	}
	if err := s.store.CreateFollow(actorID, targetID); err != nil {
		return FollowCounts{}, fromStore(err)
	}
	s.publish(models.EventFollowCreated, actorID, targetID, "")
	return s.followCounts(targetID)
}

// RemoveFollow removes the edge; removing a missing edge is a Conflict.
func (s *Service) RemoveFollow(actorID, targetID string) (FollowCounts, *Error) {
	if _, err := s.store.UserByID(targetID); err != nil {
		return FollowCounts{}, fromStore(err)
	}
	if err := s.store.DeleteFollow(actorID, targetID); err != nil {
		return FollowCounts{}, fromStore(err)
	}
	return s.followCounts(targetID)
}

func (s *Service) followCounts(targetID string) (FollowCounts, *Error) {
	followers, err := s.store.FollowerCount(targetID)
	if err != nil {
		return FollowCounts{}, fromStore(err)
	}
	following, err := s.store.FollowingCount(targetID)
	if err != nil {
		return FollowCounts{}, fromStore(err)
	}
	return FollowCounts{FollowersCount: followers, FollowingCount: following}, nil
}

// --- Likes ---

// CreateLike adds the (actor, murmur) edge and returns the live count,
// which reflects at least this like but may already include concurrent
// ones.
func (s *Service) CreateLike(actorID, murmurID string) (LikeResult, *Error) {
	if err := s.store.CreateLike(actorID, murmurID); err != nil {
		return LikeResult{}, fromStore(err)
	}
	s.publish(models.EventLikeCreated, actorID, "", murmurID)
	return s.likeResult(murmurID)
}

// RemoveLike removes the edge; removing a missing edge is a Conflict.
func (s *Service) RemoveLike(actorID, murmurID string) (LikeResult, *Error) {
	if err := s.store.DeleteLike(actorID, murmurID); err != nil {
		return LikeResult{}, fromStore(err)
	}
	return s.likeResult(murmurID)
}

func (s *Service) likeResult(murmurID string) (LikeResult, *Error) {
	n, err := s.store.LikeCount(murmurID)
	if err != nil {
		return LikeResult{}, fromStore(err)
	}
	return LikeResult{LikeCount: n}, nil
}

// --- Murmurs ---

// CreateMurmur validates and persists a murmur with a server-assigned
// timeuuid id and timestamp.
func (s *Service) CreateMurmur(actorID, content string) (MurmurView, *Error) {
	if err := models.ValidateContent(content); err != nil {
		return MurmurView{}, newError(KindValidation, err.Error())
	}
	author, err := s.store.UserByID(actorID)
	if err != nil {
		return MurmurView{}, fromStore(err)
	}

	m := models.Murmur{
		ID:       gocql.TimeUUID().String(),
		AuthorID: actorID,
		Content:  content,
		Created:  time.Now().UTC(),
	}
	if err := s.store.AddMurmur(m); err != nil {
		return MurmurView{}, fromStore(err)
	}
	s.publish(models.EventMurmurCreated, actorID, "", m.ID)

	return MurmurView{
		ID:      m.ID,
		Content: m.Content,
		Created: m.Created,
		Author:  authorView(author),
	}, nil
}

// DeleteMurmur removes the actor's murmur and cascades its likes.
// A murmur owned by someone else reports the same NotFound as a missing
// one, so existence never leaks.
func (s *Service) DeleteMurmur(actorID, murmurID string) *Error {
	if err := s.store.DeleteMurmur(actorID, murmurID); err != nil {
		return fromStore(err)
	}
	s.publish(models.EventMurmurDeleted, actorID, "", murmurID)
	return nil
}

// Notifications returns the actor's most recent notifications.
func (s *Service) Notifications(actorID string, limit int) ([]models.Notification, *Error) {
	if limit <= 0 {
		limit = 50
	}
	res, err := s.store.NotificationsByUser(actorID, limit)
	if err != nil {
		return nil, fromStore(err)
	}
	return res, nil
}
