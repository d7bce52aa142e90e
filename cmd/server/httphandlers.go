package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"example.com/murmurfeed/internal/feed"
	"example.com/murmurfeed/internal/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the stable error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err *feed.Error) {
	status := http.StatusUnprocessableEntity
	switch err.Kind {
	case feed.KindNotFound:
		status = http.StatusNotFound
	case feed.KindUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"error": err.Message,
		"kind":  err.Kind,
	})
}

func pageParam(r *http.Request) int {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}
	return page
}

// actor resolves the acting user id placed in the context by the JWT
// middleware.
func actor(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.ActingUserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return id, ok
}

// --- HTTP Handlers ---

// registerHandler handles POST /users.
// Expects JSON body: {"name": ..., "username": ..., "email": ..., "bio": ...}
// Returns the created user and a signed token.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	type req struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Bio      string `json:"bio"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/users", "Invalid request body", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	u, serr := s.svc.Register(body.Name, body.Username, body.Email, body.Bio)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	logg.Info("http/users", "User registered with user_id="+u.ID)

	secret := []byte(os.Getenv("JWT_SECRET"))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": u.ID,
		"exp":     time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenStr, err := token.SignedString(secret)
	if err != nil {
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": u.ID,
		"token":   tokenStr,
	})
}

// profileHandler handles GET /users/{id}.
func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := actor(w, r)
	if !ok {
		return
	}
	profile, serr := s.svc.Profile(viewerID, r.PathValue("id"))
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// deleteAccountHandler handles DELETE /users/me, cascading murmurs,
// likes and follow edges.
func (s *Server) deleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	if serr := s.svc.DeleteAccount(actorID); serr != nil {
		writeServiceError(w, serr)
		return
	}
	logg.Info("http/users", "Account deleted for user_id="+actorID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// followHandler handles POST /users/{id}/follow.
// Uses user_id from JWT token as the follower.
func (s *Server) followHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	targetID := r.PathValue("id")

	counts, serr := s.svc.CreateFollow(actorID, targetID)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	logg.Info("http/follow", "User "+actorID+" followed "+targetID)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"followers_count": counts.FollowersCount,
		"following_count": counts.FollowingCount,
	})
}

// unfollowHandler handles DELETE /users/{id}/follow.
func (s *Server) unfollowHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	targetID := r.PathValue("id")

	counts, serr := s.svc.RemoveFollow(actorID, targetID)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	logg.Info("http/follow", "User "+actorID+" unfollowed "+targetID)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"followers_count": counts.FollowersCount,
		"following_count": counts.FollowingCount,
	})
}

// createMurmurHandler handles POST /murmurs.
// Expects JSON body: {"content": "murmur text"}
func (s *Server) createMurmurHandler(w http.ResponseWriter, r *http.Request) {
	type req struct {
		Content string `json:"content"`
	}
	var body req

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		logg.Error("http/murmurs", "Invalid request body", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	view, serr := s.svc.CreateMurmur(actorID, body.Content)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	logg.Info("http/murmurs", "Murmur created by user_id="+actorID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"murmur":  view,
	})
}

// deleteMurmurHandler handles DELETE /murmurs/{id}. Ownership failures
// and missing murmurs are the same 404.
func (s *Server) deleteMurmurHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	if serr := s.svc.DeleteMurmur(actorID, r.PathValue("id")); serr != nil {
		writeServiceError(w, serr)
		return
	}
	logg.Info("http/murmurs", "Murmur deleted by user_id="+actorID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// likeHandler handles POST /murmurs/{id}/like.
func (s *Server) likeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	res, serr := s.svc.CreateLike(actorID, r.PathValue("id"))
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"like_count": res.LikeCount,
	})
}

// unlikeHandler handles DELETE /murmurs/{id}/like.
func (s *Server) unlikeHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	res, serr := s.svc.RemoveLike(actorID, r.PathValue("id"))
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"like_count": res.LikeCount,
	})
}

// timelineHandler handles GET /timeline?page=N.
// The feed is composed at read time for the acting user.
func (s *Server) timelineHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	page, serr := s.svc.Timeline(actorID, pageParam(r))
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	logg.Info("http/timeline", "Timeline served for user_id="+actorID)
	writeJSON(w, http.StatusOK, page)
}

// userMurmursHandler handles GET /users/{id}/murmurs?page=N.
// Enrichment is relative to the acting user, not the listed author.
func (s *Server) userMurmursHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	page, serr := s.svc.AuthoredBy(actorID, r.PathValue("id"), pageParam(r))
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// notificationsHandler handles GET /notifications.
func (s *Server) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	notifs, serr := s.svc.Notifications(actorID, 50)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifs})
}
