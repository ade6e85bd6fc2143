package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sladeshProAPI/handlers"
	"sladeshProAPI/internal/notification"
	"sladeshProAPI/internal/store"
	"sladeshProAPI/internal/workers"
	"sladeshProAPI/middleware"
	"sladeshProAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	docStore            store.DocumentStore
	userService         *services.UserService
	channelService      *services.ChannelService
	notificationService *services.NotificationService
	checkInService      *services.CheckInService
	sladeshService      *services.SladeshService
	commentService      *services.CommentService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	initDocStore(ctx)

	notificationService = services.NewNotificationService(docStore)
	userService = services.NewUserService(docStore)
	channelService = services.NewChannelService(docStore)
	checkInService = services.NewCheckInService(docStore, notificationService, channelService)
	sladeshService = services.NewSladeshService(docStore, notificationService)
	commentService = services.NewCommentService(docStore, channelService)

	var err error
	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

// initDocStore picks the document backend. Firestore is the default;
// DOCSTORE_BACKEND=postgres keeps the same document semantics on a JSONB
// table for deployments without a Firebase project.
func initDocStore(ctx context.Context) {
	backend := os.Getenv("DOCSTORE_BACKEND")
	if backend == "" {
		backend = "firestore"
	}

	switch backend {
	case "firestore":
		fsStore, err := store.NewFirestoreStore(ctx, "./serviceAccountKey.json")
		if err != nil {
			log.Fatal("Failed to initialize Firestore:", err)
		}
		docStore = fsStore
		log.Println("Successfully connected to Firestore")

	case "postgres":
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			log.Fatal("DATABASE_URL environment variable is not set")
		}

		poolConfig, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			log.Fatal("Failed to parse database URL:", err)
		}

		poolConfig.MaxConns = 25
		poolConfig.MinConns = 5
		poolConfig.MaxConnLifetime = time.Hour
		poolConfig.MaxConnIdleTime = 30 * time.Minute
		poolConfig.HealthCheckPeriod = time.Minute

		dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Fatal("Failed to create connection pool:", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Fatal("Failed to ping database:", err)
		}

		pgStore := store.NewPostgresStore(dbPool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to ensure schema:", err)
		}
		docStore = pgStore
		log.Println("Successfully connected to Postgres document store")

	default:
		log.Fatalf("Unknown DOCSTORE_BACKEND %q", backend)
	}
}

func main() {
	defer func() {
		if dbPool != nil {
			log.Println("Closing database connection pool...")
			dbPool.Close()
		}
	}()

	userHandler := handlers.NewUserHandler(userService, checkInService)
	channelHandler := handlers.NewChannelHandler(channelService, checkInService)
	sladeshHandler := handlers.NewSladeshHandler(sladeshService, userService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, channelService)
	commentHandler := handlers.NewCommentHandler(commentService, userService)

	workers.StartMaintenanceWorker(docStore, checkInService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if dbPool != nil {
			if err := dbPool.Ping(ctx); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "sladeshPro-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/register-device", userHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/user/check-in", userHandler.CheckIn).Methods("POST")
	protected.HandleFunc("/user/drink", userHandler.AddDrink).Methods("POST")
	protected.HandleFunc("/user/drink", userHandler.SubtractDrink).Methods("DELETE")
	protected.HandleFunc("/user/drinks/reset", userHandler.ResetDrinks).Methods("POST")
	protected.HandleFunc("/drinks/catalog", userHandler.GetDrinkCatalog).Methods("GET")

	protected.HandleFunc("/channels", channelHandler.List).Methods("GET")
	protected.HandleFunc("/channels", channelHandler.Create).Methods("POST")
	protected.HandleFunc("/channels/join", channelHandler.Join).Methods("POST")
	protected.HandleFunc("/channels/{channelId}/leaderboard", channelHandler.Leaderboard).Methods("GET")
	protected.HandleFunc("/channels/{channelId}/map", channelHandler.Map).Methods("GET")

	protected.HandleFunc("/sladesh/can-send", sladeshHandler.CanSend).Methods("GET")
	protected.HandleFunc("/sladesh", sladeshHandler.Send).Methods("POST")
	protected.HandleFunc("/sladesh/complete", sladeshHandler.Complete).Methods("POST")
	protected.HandleFunc("/sladesh/received", sladeshHandler.ListReceived).Methods("GET")
	protected.HandleFunc("/sladesh/sent", sladeshHandler.ListSent).Methods("GET")
	protected.HandleFunc("/sladesh/uncompleted", sladeshHandler.Uncompleted).Methods("GET")

	protected.HandleFunc("/channels/{channelId}/notifications", notificationHandler.List).Methods("GET")
	protected.HandleFunc("/channels/{channelId}/notifications/unread-count", notificationHandler.UnreadCount).Methods("GET")
	protected.HandleFunc("/channels/{channelId}/notifications/watch-all", notificationHandler.MarkAllWatched).Methods("PUT")
	protected.HandleFunc("/channels/{channelId}/notifications", notificationHandler.ClearAll).Methods("DELETE")

	protected.HandleFunc("/channels/{channelId}/comments", commentHandler.Add).Methods("POST")
	protected.HandleFunc("/channels/{channelId}/comments", commentHandler.List).Methods("GET")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
