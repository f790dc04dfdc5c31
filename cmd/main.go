package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"spill/auth"
	"spill/httpapi"
	"spill/relay"
	"spill/repositories"
	"spill/runtime/workers"
	"spill/services"
	"spill/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for HTTP and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Relay & repositories
	rdb := relay.NewRedisClient(config.RedisAddr)
	defer func() { _ = rdb.Close() }()
	relayClient := relay.NewRedis(rdb, log)
	authorizer := relay.NewAuthorizer(config.RelayKey, config.RelaySecret)

	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)

	// 4. Deferred delivery confirmations under supervision
	deliveries := make(chan workers.DeliveryJob, config.DeliveryQueueSize)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewDeliveryWorker(log, messageRepository, relayClient, deliveries, config.DeliveryDelay))

	chatService := services.NewChatService(log, messageRepository, userRepository, relayClient, deliveries)
	tokens := auth.NewTokens(config.AuthSecret, config.AuthTokenDuration)

	// 5. Optional blob storage for avatars
	var avatars *storage.AvatarStore
	if config.MinioEndpoint != "" {
		avatars, err = storage.NewAvatarStore(storage.AvatarConfig{
			Endpoint:      config.MinioEndpoint,
			AccessKey:     config.MinioAccessKey,
			SecretKey:     config.MinioSecretKey,
			UseSSL:        config.MinioUseSSL,
			Bucket:        config.MinioBucket,
			PublicBaseURL: config.MinioPublicURL,
		})
		if err != nil {
			return fmt.Errorf("avatar storage init failed: %w", err)
		}
		if err = avatars.EnsureBucket(context.Background()); err != nil {
			return fmt.Errorf("avatar bucket init failed: %w", err)
		}
	}

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sup.Run(ctx)

	// 7. HTTP Server Setup
	handler := httpapi.NewHandler(log, chatService, userRepository, authorizer, avatars)
	authenticated := func(next http.Handler) http.Handler {
		return httpapi.AuthMiddleware(tokens, next)
	}
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           httpapi.Routes(handler, authenticated),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
