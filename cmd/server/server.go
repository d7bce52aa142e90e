package server

import (
	"context"
	"net/http"
	"time"

	appkafka "example.com/murmurfeed/internal/broker"
	"example.com/murmurfeed/internal/feed"
	"example.com/murmurfeed/internal/logger"
	"example.com/murmurfeed/internal/middleware"
	"example.com/murmurfeed/internal/store"
)

type Server struct {
	svc *feed.Service
}

var logg = logger.New()

// routes maps the service operations 1:1 onto HTTP endpoints. Only user
// registration is public; everything else resolves the acting identity
// through the JWT middleware.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /users", http.HandlerFunc(s.registerHandler))

	auth := func(h http.HandlerFunc) http.Handler {
		return middleware.JWTAuth(h)
	}
	mux.Handle("GET /users/{id}", auth(s.profileHandler))
	mux.Handle("DELETE /users/me", auth(s.deleteAccountHandler))
	mux.Handle("POST /users/{id}/follow", auth(s.followHandler))
	mux.Handle("DELETE /users/{id}/follow", auth(s.unfollowHandler))
	mux.Handle("GET /users/{id}/murmurs", auth(s.userMurmursHandler))
	mux.Handle("POST /murmurs", auth(s.createMurmurHandler))
	mux.Handle("DELETE /murmurs/{id}", auth(s.deleteMurmurHandler))
	mux.Handle("POST /murmurs/{id}/like", auth(s.likeHandler))
	mux.Handle("DELETE /murmurs/{id}/like", auth(s.unlikeHandler))
	mux.Handle("GET /timeline", auth(s.timelineHandler))
	mux.Handle("GET /notifications", auth(s.notificationsHandler))

	return mux
}

// Run starts the HTTPS server with JWT-protected routes and graceful shutdown.
func Run(ctx context.Context, st store.StoreInterface, writer appkafka.KafkaWriter, addr string) {
	s := &Server{
		svc: feed.New(st, writer),
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second, // prevent slowloris attacks
		WriteTimeout: 10 * time.Second,
	}

	// --- Start server in a goroutine ---
	go func() {
		logg.Info("server", "Starting HTTPS server on "+addr)
		// TLS: cert.pem and key.pem should be valid certificates in specified paths
		if err := srv.ListenAndServeTLS("/certs/cert.pem", "/certs/key.pem"); err != nil && err != http.ErrServerClosed {
			logg.Error("server", "Server stopped unexpectedly", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	logg.Info("server", "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("server", "Error during server shutdown", err)
	} else {
		logg.Info("server", "Server stopped gracefully")
	}
}
