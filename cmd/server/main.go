package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gymbuddy/gymbuddy-backend/internal/config"
	"github.com/gymbuddy/gymbuddy-backend/internal/database"
	"github.com/gymbuddy/gymbuddy-backend/internal/handlers"
	"github.com/gymbuddy/gymbuddy-backend/internal/jobs"
	"github.com/gymbuddy/gymbuddy-backend/internal/repository"
	cronjobs "github.com/gymbuddy/gymbuddy-backend/internal/scheduler"
	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
	"github.com/gymbuddy/gymbuddy-backend/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, client, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	accountRepo := repository.NewAccountRepository(db)
	milestoneRepo := repository.NewMilestoneRepository(db, client)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	gymRepo := repository.NewGymRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo, accountRepo)
	accountService := services.NewAccountService(accountRepo, postRepo, connectionRepo, milestoneRepo, cfg)
	milestoneService := services.NewMilestoneService(milestoneRepo, accountRepo, notificationService)
	chatService := services.NewChatService(conversationRepo, messageRepo, accountRepo, notificationService)
	connectionService := services.NewConnectionService(connectionRepo, accountRepo, notificationService, milestoneService)
	socialService := services.NewSocialService(postRepo, commentRepo, likeRepo, accountRepo, connectionService, milestoneService, notificationService)
	gymService := services.NewGymService(gymRepo, accountRepo, milestoneService, notificationService)
	trainerService := services.NewTrainerService(accountRepo, connectionRepo, milestoneRepo)

	// --- Handlers ---
	accountHandler := handlers.NewAccountHandler(accountService)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService)
	chatHandler := handlers.NewChatHandler(chatService, cfg)
	wsChatHandler := handlers.NewWSChatHandler(chatService, accountService, cfg.JWTSecret)
	connectionHandler := handlers.NewConnectionHandler(connectionService)
	socialHandler := handlers.NewSocialHandler(socialService, cfg)
	gymHandler := handlers.NewGymHandler(gymService)
	trainerHandler := handlers.NewTrainerHandler(trainerService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Initialize Gorilla Mux router
	router := mux.NewRouter()

	// Public auth routes
	router.HandleFunc("/accounts/register", accountHandler.RegisterHandler).Methods("POST")
	router.HandleFunc("/accounts/login", accountHandler.LoginHandler).Methods("POST")

	// Realtime chat socket (token auth via query parameter)
	router.HandleFunc("/ws/chat", wsChatHandler.ChatWebSocketHandler)

	// Protected account routes
	accountRoutes := router.PathPrefix("/accounts").Subrouter()
	accountRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	accountRoutes.Use(middleware.OnlineStatusMiddleware(accountService))
	accountRoutes.HandleFunc("/logout", accountHandler.LogoutHandler).Methods("POST")
	accountRoutes.HandleFunc("/verify-token", accountHandler.VerifyTokenHandler).Methods("GET")
	accountRoutes.HandleFunc("/me", accountHandler.GetMeHandler).Methods("GET")
	accountRoutes.HandleFunc("/me", accountHandler.UpdateMeHandler).Methods("PUT")
	accountRoutes.HandleFunc("/active", accountHandler.GetActiveHandler).Methods("GET")
	accountRoutes.HandleFunc("/search", accountHandler.SearchHandler).Methods("GET")
	accountRoutes.HandleFunc("/{id}", accountHandler.GetAccountHandler).Methods("GET")
	accountRoutes.HandleFunc("/{id}/stats", accountHandler.GetStatsHandler).Methods("GET")
	accountRoutes.HandleFunc("/{id}/posts", socialHandler.GetAccountPostsHandler).Methods("GET")

	// Gamification routes
	milestoneRoutes := router.PathPrefix("/milestones").Subrouter()
	milestoneRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	milestoneRoutes.Use(middleware.OnlineStatusMiddleware(accountService))
	milestoneRoutes.HandleFunc("/achievements", milestoneHandler.GetAchievementsHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/challenges", milestoneHandler.GetChallengesHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/challenges/{id}", milestoneHandler.GetChallengeHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/challenges/{id}/join", milestoneHandler.JoinChallengeHandler).Methods("POST")
	milestoneRoutes.HandleFunc("/challenges/{id}/progress", milestoneHandler.UpdateProgressHandler).Methods("PUT")
	milestoneRoutes.HandleFunc("/challenges/{id}/participants", milestoneHandler.GetParticipantsHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/leaderboard", milestoneHandler.GetLeaderboardHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/summary", milestoneHandler.GetSummaryHandler).Methods("GET")
	milestoneRoutes.HandleFunc("/actions", milestoneHandler.RecordActionHandler).Methods("POST")

	// Chat routes
	chatRoutes := router.PathPrefix("/chat").Subrouter()
	chatRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	chatRoutes.Use(middleware.OnlineStatusMiddleware(accountService))
	chatRoutes.HandleFunc("/conversations", chatHandler.StartConversationHandler).Methods("POST")
	chatRoutes.HandleFunc("/conversations", chatHandler.GetConversationsHandler).Methods("GET")
	chatRoutes.HandleFunc("/conversations/{id}", chatHandler.UpdateConversationHandler).Methods("PUT")
	chatRoutes.HandleFunc("/conversations/{id}", chatHandler.DeleteConversationHandler).Methods("DELETE")
	chatRoutes.HandleFunc("/conversations/{id}/messages", chatHandler.SendMessageHandler).Methods("POST")
	chatRoutes.HandleFunc("/conversations/{id}/messages", chatHandler.GetMessagesHandler).Methods("GET")
	chatRoutes.HandleFunc("/messages/{id}", chatHandler.UpdateMessageHandler).Methods("PUT")
	chatRoutes.HandleFunc("/media", chatHandler.UploadMediaHandler).Methods("POST")

	// Connection routes
	connectionRoutes := router.PathPrefix("/connections").Subrouter()
	connectionRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	connectionRoutes.Use(middleware.OnlineStatusMiddleware(accountService))
	connectionRoutes.HandleFunc("", connectionHandler.SendRequestHandler).Methods("POST")
	connectionRoutes.HandleFunc("", connectionHandler.GetConnectionsHandler).Methods("GET")
	connectionRoutes.HandleFunc("/pending", connectionHandler.GetPendingHandler).Methods("GET")
	connectionRoutes.HandleFunc("/suggestions", connectionHandler.GetSuggestionsHandler).Methods("GET")
	connectionRoutes.HandleFunc("/{id}/respond", connectionHandler.RespondHandler).Methods("POST")
	connectionRoutes.HandleFunc("/{id}/status", connectionHandler.CheckStatusHandler).Methods("GET")
	connectionRoutes.HandleFunc("/{id}", connectionHandler.RemoveHandler).Methods("DELETE")

	// Social feed routes
	socialRoutes := router.PathPrefix("/social").Subrouter()
	socialRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	socialRoutes.Use(middleware.OnlineStatusMiddleware(accountService))
	socialRoutes.HandleFunc("/feed", socialHandler.GetFeedHandler).Methods("GET")
	socialRoutes.HandleFunc("/posts", socialHandler.CreatePostHandler).Methods("POST")
	socialRoutes.HandleFunc("/posts/{id}", socialHandler.GetPostHandler).Methods("GET")
	socialRoutes.HandleFunc("/posts/{id}", socialHandler.UpdatePostHandler).Methods("PUT")
	socialRoutes.HandleFunc("/posts/{id}", socialHandler.DeletePostHandler).Methods("DELETE")
	socialRoutes.HandleFunc("/posts/{id}/like", socialHandler.LikePostHandler).Methods("POST")
	socialRoutes.HandleFunc("/posts/{id}/like", socialHandler.UnlikePostHandler).Methods("DELETE")
	socialRoutes.HandleFunc("/posts/{id}/likes", socialHandler.GetPostLikesHandler).Methods("GET")
	socialRoutes.HandleFunc("/posts/{id}/comments", socialHandler.AddCommentHandler).Methods("POST")
	socialRoutes.HandleFunc("/posts/{id}/comments", socialHandler.GetCommentsHandler).Methods("GET")
	socialRoutes.HandleFunc("/comments/{id}", socialHandler.DeleteCommentHandler).Methods("DELETE")
	socialRoutes.HandleFunc("/comments/{id}/like", socialHandler.LikeCommentHandler).Methods("POST")
	socialRoutes.HandleFunc("/comments/{id}/like", socialHandler.UnlikeCommentHandler).Methods("DELETE")
	socialRoutes.HandleFunc("/media", socialHandler.UploadMediaHandler).Methods("POST")

	// Gym directory routes
	gymRoutes := router.PathPrefix("/gyms").Subrouter()
	gymRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	gymRoutes.Use(middleware.OnlineStatusMiddleware(accountService))
	gymRoutes.HandleFunc("", gymHandler.ListGymsHandler).Methods("GET")
	gymRoutes.HandleFunc("/{id}", gymHandler.GetGymHandler).Methods("GET")
	gymRoutes.HandleFunc("/{id}/trainers", gymHandler.GetGymTrainersHandler).Methods("GET")
	gymRoutes.HandleFunc("/{id}/posts", socialHandler.GetGymPostsHandler).Methods("GET")
	gymRoutes.HandleFunc("/{id}/checkin", gymHandler.CheckInHandler).Methods("POST")

	// Gym admin console
	gymAdminRoutes := router.PathPrefix("/gym-admins").Subrouter()
	gymAdminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	gymAdminRoutes.Use(middleware.RequireRole("gym_admin"))
	gymAdminRoutes.HandleFunc("/gym", gymHandler.CreateGymHandler).Methods("POST")
	gymAdminRoutes.HandleFunc("/gym", gymHandler.GetOwnGymHandler).Methods("GET")
	gymAdminRoutes.HandleFunc("/gym", gymHandler.UpdateOwnGymHandler).Methods("PUT")
	gymAdminRoutes.HandleFunc("/gym/stats", gymHandler.GetOwnGymStatsHandler).Methods("GET")
	gymAdminRoutes.HandleFunc("/gym/members", gymHandler.GetOwnGymMembersHandler).Methods("GET")
	gymAdminRoutes.HandleFunc("/gym/members", gymHandler.AddMemberHandler).Methods("POST")
	gymAdminRoutes.HandleFunc("/gym/members/{accountId}", gymHandler.RemoveMemberHandler).Methods("DELETE")

	// Trainer directory routes
	trainerRoutes := router.PathPrefix("/trainers").Subrouter()
	trainerRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	trainerRoutes.HandleFunc("", trainerHandler.ListTrainersHandler).Methods("GET")
	trainerRoutes.HandleFunc("/{id}", trainerHandler.GetTrainerHandler).Methods("GET")
	trainerRoutes.HandleFunc("/{id}/stats", trainerHandler.GetTrainerStatsHandler).Methods("GET")

	// Trainer console
	trainerConsoleRoutes := router.PathPrefix("/trainer-console").Subrouter()
	trainerConsoleRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	trainerConsoleRoutes.Use(middleware.RequireRole("trainer"))
	trainerConsoleRoutes.HandleFunc("/profile", trainerHandler.UpdateProfileHandler).Methods("PUT")
	trainerConsoleRoutes.HandleFunc("/availability", trainerHandler.AddAvailabilityHandler).Methods("POST")
	trainerConsoleRoutes.HandleFunc("/availability/{slotId}", trainerHandler.RemoveAvailabilityHandler).Methods("DELETE")

	// Notification routes
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", notificationHandler.ListHandler).Methods("GET")
	notificationRoutes.HandleFunc("", notificationHandler.DeleteAllHandler).Methods("DELETE")
	notificationRoutes.HandleFunc("/unread-count", notificationHandler.UnreadCountHandler).Methods("GET")
	notificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.GetHandler).Methods("GET")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.UpdateHandler).Methods("PUT")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteHandler).Methods("DELETE")

	// Static uploads
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Recurring jobs
	notifier := jobs.NewChallengeNotifier(milestoneRepo, notificationService)
	cronjobs.StartMilestoneCronJobs(notifier)

	// Start the HTTP server
	port := cfg.Port
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // adjust to frontend origin
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
