// cmd/api/main.go
// Main entry point: bootstraps all components and starts the server

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anyjobhub/qalbii/internal/auth"
	"github.com/anyjobhub/qalbii/internal/chat"
	"github.com/anyjobhub/qalbii/internal/common/database"
	"github.com/anyjobhub/qalbii/internal/common/email"
	"github.com/anyjobhub/qalbii/internal/common/middleware"
	"github.com/anyjobhub/qalbii/internal/common/storage"
	"github.com/anyjobhub/qalbii/internal/config"
	"github.com/anyjobhub/qalbii/internal/notification"
	"github.com/anyjobhub/qalbii/internal/profile"
)

var startTime = time.Now()

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("Starting Qalbii Chat API")
	log.Println("========================================")

	// 1. Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (%v), using environment variables", err)
	}

	// 2. Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration validation failed: ", err)
	}

	// 3. Connect to PostgreSQL
	db, err := database.NewPostgresDB(cfg.DatabaseURL, nil)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL: ", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// 4. Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable (%v), continuing without it", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("Connected to Redis")
		}
	} else {
		log.Println("Redis URL not configured, rate limiting and redis presence disabled")
	}

	// 5. Run database migrations
	if err := runMigrations(db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	log.Println("Database migrations completed")

	// 6. Email sender
	var emailSender email.Sender
	switch cfg.EmailProvider {
	case "sendgrid":
		emailSender = email.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailFrom, "Qalbii")
		log.Println("Using SendGrid for emails")
	case "smtp":
		emailSender = email.NewSMTPSender(
			cfg.SMTPHost,
			fmt.Sprintf("%d", cfg.SMTPPort),
			cfg.SMTPUsername,
			cfg.SMTPPassword,
			cfg.EmailFrom,
		)
		log.Println("Using SMTP for emails")
	default:
		emailSender = email.NewMockSender()
		log.Println("Using mock email sender (development mode)")
	}

	// 7. Media storage
	var uploader storage.Uploader
	if cfg.UseS3 {
		awsSession, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWSRegion),
		})
		if err != nil {
			log.Printf("AWS session creation failed (%v), using local storage", err)
			uploader = storage.NewLocalUploader(cfg.LocalUploadDir, cfg.BaseURL+"/uploads")
		} else {
			uploader = storage.NewS3Uploader(awsSession, cfg.S3Bucket, cfg.BaseURL, cfg.MaxMediaUploadSize)
			log.Println("Using S3 for media storage")
		}
	} else {
		uploader = storage.NewLocalUploader(cfg.LocalUploadDir, cfg.BaseURL+"/uploads")
		log.Println("Using local storage for media uploads")
	}

	// 8. Auth system
	authRepo := auth.NewPostgresRepository(db)
	authService := auth.NewService(authRepo, emailSender, &auth.Config{
		JWTSecret:          cfg.JWTSecret,
		AccessTokenExpiry:  cfg.AccessTokenExpiry,
		RefreshTokenExpiry: cfg.RefreshTokenExpiry,
		BCryptCost:         cfg.BCryptCost,
		OTPExpiry:          cfg.OTPExpiry,
		OTPMaxAttempts:     cfg.MaxOTPAttempts,
	})
	authHandler := auth.NewHandler(authService)
	authMw := auth.NewMiddleware(authService)
	log.Println("Auth system initialized")

	// 9. Profile system
	profileRepo := profile.NewPostgresRepository(db)
	profileService := profile.NewService(profileRepo, uploader)
	profileHandler := profile.NewHandler(profileService)
	log.Println("Profile system initialized")

	// 10. Notifications
	notificationRepo := notification.NewPostgresRepository(db)
	notificationService := notification.NewService(notificationRepo, emailSender)
	notificationHandler := notification.NewHandler(notificationService)
	authService.SetSecurityNotifier(notificationService)
	log.Println("Notification system initialized")

	// 11. Chat system
	var presence chat.Presence
	if cfg.PresenceBackend == "redis" && redisClient != nil {
		presence = chat.NewRedisPresence(redisClient, cfg.PresenceTTL)
		log.Println("Using Redis presence registry")
	} else {
		presence = chat.NewMemoryPresence()
		log.Println("Using in-memory presence registry")
	}

	chatRepo := chat.NewPostgresRepository(db)
	chatService := chat.NewService(chatRepo, presence, notificationService)

	hub := chat.NewHub(chatService, presence)
	chatService.SetHub(hub)
	go hub.Run()
	log.Println("WebSocket hub started")

	chatHandler := chat.NewHandler(chatService, hub, uploader)
	log.Println("Chat system initialized")

	// 12. Background cleanup jobs
	go startOTPCleanup(authRepo)
	go startNotificationCleanup(notificationRepo)

	// 13. Routes
	router := mux.NewRouter()

	if !cfg.UseS3 {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/",
				http.FileServer(http.Dir(cfg.LocalUploadDir))))
	}

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	limiter := middleware.NewRateLimiter(redisClient)

	auth.RegisterRoutes(router, authHandler, authMw, limiter)
	profile.RegisterRoutes(router, profileHandler, authMw.Authenticate)
	chat.RegisterRoutes(router, chatHandler, authMw.Authenticate)
	notification.RegisterRoutes(router, notificationHandler, authMw.Authenticate)
	log.Println("Routes registered")

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)

	// 14. Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s (%s)", srv.Addr, cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received")

	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exited gracefully")
}

// startOTPCleanup prunes expired verification codes hourly
func startOTPCleanup(repo auth.Repository) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := repo.DeleteExpiredOTPs(ctx, time.Now()); err != nil {
			log.Printf("Failed to cleanup expired OTPs: %v", err)
		}
		cancel()
	}
}

// startNotificationCleanup prunes read notifications older than 30 days
func startNotificationCleanup(repo notification.Repository) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		if err := repo.DeleteOldNotifications(ctx, time.Now().Add(-30*24*time.Hour)); err != nil {
			log.Printf("Failed to cleanup old notifications: %v", err)
		}
		cancel()
	}
}

// healthCheck returns server health status
func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// loggingMiddleware logs all requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		log.Printf("%s %s [%d] %v", r.Method, r.RequestURI, wrapped.statusCode, time.Since(start))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the logging wrapper
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
