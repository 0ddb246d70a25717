package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/deep-dholariya/backend/auth"
	"github.com/deep-dholariya/backend/cache"
	"github.com/deep-dholariya/backend/config"
	"github.com/deep-dholariya/backend/controllers"
	"github.com/deep-dholariya/backend/routes"
	"github.com/deep-dholariya/backend/store"
	"github.com/deep-dholariya/backend/utils"
	"github.com/deep-dholariya/backend/workflow"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	rootCmd := &cobra.Command{
		Use:          "property-listing",
		Short:        "Property listing marketplace backend",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	rootCmd.AddCommand(
		serveCmd(&envFile),
		createAdminCmd(&envFile),
	)
	return rootCmd
}

func loadConfig(envFile string) (config.Config, *slog.Logger, error) {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	config.LoadEnvFile(bootstrap, envFile)

	cfg, err := config.Load()
	if err != nil {
		return cfg, bootstrap, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*envFile)
			if err != nil {
				logger.Error("startup failed", "error", err)
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func createAdminCmd(envFile *string) *cobra.Command {
	var in workflow.Registration
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote the account holding --email",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := config.OpenStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			engine := workflow.New(st, workflow.WithLogger(logger))
			user, created, err := engine.EnsureAdmin(ctx, in)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is an admin\n", user.Email, user.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.MobileNumber, "mobile", "", "mobile number")
	cmd.Flags().StringVar(&in.Password, "password", "", "password for a new account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// buildEnv wires the store, the optional Redis client and the configuration
// into handler dependencies.
func buildEnv(cfg config.Config, st store.Store, redisClient *redis.Client, logger *slog.Logger) *controllers.Env {
	var listings cache.Listings = cache.NoopListings{}
	var revocations cache.Revocations = cache.NewMemoryRevocations()
	if redisClient != nil {
		listings = cache.NewRedisListings(redisClient, cfg.ListingCacheTTL, logger)
		revocations = cache.NewRedisRevocations(redisClient)
	}

	engine := workflow.New(st,
		workflow.WithListingCache(listings),
		workflow.WithLogger(logger),
		workflow.WithPasswordReset(cfg.PasswordResetEnabled),
	)
	signer := utils.NewSessionSigner(cfg.JWTSecret, cfg.SessionTTL)
	return &controllers.Env{
		Engine:       engine,
		Gate:         auth.NewGate(signer, revocations, st, logger),
		Logger:       logger,
		SecureCookie: cfg.CookieSecure,
	}
}

func newHandler(cfg config.Config, env *controllers.Env) http.Handler {
	corsOptions := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return corsOptions.Handler(routes.NewHandler(env, cfg.BodyLimitBytes))
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := config.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open the store", "driver", cfg.StoreDriver, "error", err)
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Error("error closing the store", "error", err)
			return
		}
		logger.Info("store closed", "driver", cfg.StoreDriver)
	}()

	redisClient, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		return err
	}
	if redisClient == nil {
		logger.Warn("REDIS_ADDR not set; listing cache disabled and revocations kept in memory")
	} else {
		defer redisClient.Close()
	}

	env := buildEnv(cfg, st, redisClient, logger)
	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        newHandler(cfg, env),
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "port", cfg.Port, "driver", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("error starting server", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err)
		return err
	}
	logger.Info("server gracefully stopped")
	return nil
}
