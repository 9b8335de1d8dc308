package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/tuutuut/tuutuut-api/internal/advice"
	"github.com/tuutuut/tuutuut-api/internal/auth"
	"github.com/tuutuut/tuutuut-api/internal/db"
	"github.com/tuutuut/tuutuut-api/internal/handlers"
	"github.com/tuutuut/tuutuut-api/internal/middleware"
	"github.com/tuutuut/tuutuut-api/internal/registry"
	"github.com/tuutuut/tuutuut-api/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment")
	}

	log.SetFormatter(&log.JSONFormatter{})
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	backend := os.Getenv("STORE_BACKEND")
	if backend == "" {
		backend = "mongo"
	}

	var store db.Store
	var userCollection db.UserCollection

	switch backend {
	case "local":
		path := os.Getenv("LOCAL_DB_PATH")
		if path == "" {
			path = "tuutuut.db"
		}
		local, err := db.OpenLocal(path)
		if err != nil {
			log.WithError(err).Fatal("Failed to open local store")
		}
		store = local
		log.WithField("path", path).Info("Using local guest store")

	case "mongo":
		client, err := db.ConnectMongo()
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MongoDB")
		}
		dbName := os.Getenv("MONGO_DB")
		if dbName == "" {
			dbName = "tuutuut"
		}
		database := client.Database(dbName)
		store = db.NewMongoStore(database)
		userCollection = &db.MongoUserCollection{Collection: database.Collection("users")}
		log.WithField("database", dbName).Info("Connected to MongoDB")

	default:
		log.WithField("backend", backend).Fatal("Unknown STORE_BACKEND, want mongo or local")
	}

	adviceClient := advice.NewClient()
	refresher := advice.NewRefresher(adviceClient, store)

	carHandler := handlers.NewCarHandler(store)
	recordHandler := handlers.NewRecordHandler(store)
	taskHandler := handlers.NewTaskHandler(store)
	adviceHandler := handlers.NewAdviceHandler(refresher)
	notificationHandler := handlers.NewNotificationHandler(store)
	registryHandler := handlers.NewRegistryHandler(registry.NewClient())
	chatHandler := handlers.NewChatHandler(adviceClient, store)

	// The AI endpoints are the expensive ones; everything else is cheap.
	aiLimiter := middleware.NewRateLimiter(10, 3)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.Health)

	mux.HandleFunc("GET /api/cars", carHandler.ListCars)
	mux.HandleFunc("POST /api/cars", carHandler.CreateCar)
	mux.HandleFunc("GET /api/cars/{id}", carHandler.GetCar)
	mux.HandleFunc("PUT /api/cars/{id}", carHandler.UpdateCar)
	mux.HandleFunc("DELETE /api/cars/{id}", carHandler.DeleteCar)
	mux.HandleFunc("PUT /api/cars/{id}/mileage", carHandler.UpdateMileage)
	mux.HandleFunc("POST /api/cars/{id}/photo", carHandler.UploadPhoto)
	mux.Handle("POST /api/cars/{id}/advice", aiLimiter.Limit(http.HandlerFunc(adviceHandler.Refresh)))

	mux.HandleFunc("GET /api/records", recordHandler.ListRecords)
	mux.HandleFunc("POST /api/records", recordHandler.CreateRecord)
	mux.HandleFunc("GET /api/records/{id}", recordHandler.GetRecord)
	mux.HandleFunc("PUT /api/records/{id}", recordHandler.UpdateRecord)
	mux.HandleFunc("DELETE /api/records/{id}", recordHandler.DeleteRecord)

	mux.HandleFunc("GET /api/tasks", taskHandler.ListTasks)
	mux.HandleFunc("POST /api/tasks", taskHandler.CreateTask)
	mux.HandleFunc("PUT /api/tasks/{id}", taskHandler.UpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", taskHandler.DeleteTask)

	mux.HandleFunc("GET /api/notifications", notificationHandler.List)
	mux.HandleFunc("GET /api/registry/lookup", registryHandler.Lookup)
	mux.Handle("POST /api/chat", aiLimiter.Limit(http.HandlerFunc(chatHandler.Chat)))

	var handler http.Handler
	if backend == "local" {
		handler = middleware.GuestSession(mux)
	} else {
		authService, err := auth.NewService()
		if err != nil {
			log.WithError(err).Fatal("Failed to create auth service")
		}
		authHandler := handlers.NewAuthHandler(authService, userCollection)
		mux.HandleFunc("POST /api/auth/login", authHandler.Login)
		mux.HandleFunc("POST /api/auth/register", authHandler.Register)
		mux.HandleFunc("GET /api/auth/profile", authHandler.GetProfile)
		mux.HandleFunc("PUT /api/auth/profile", authHandler.UpdateProfile)
		mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

		handler = middleware.NewAuthMiddleware(authService).Authenticate(mux)
	}

	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		ingestor := telemetry.NewIngestor(store)
		if err := ingestor.Start(broker); err != nil {
			log.WithError(err).Fatal("Failed to start odometer ingest")
		}
		defer ingestor.Stop()
		log.WithField("broker", broker).Info("Odometer ingest started")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}
