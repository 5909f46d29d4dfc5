package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"animal-quiz-service/internal/app"
	"animal-quiz-service/internal/config"
	"animal-quiz-service/internal/infra/memory"
	infrapg "animal-quiz-service/internal/infra/postgres"
	infraredis "animal-quiz-service/internal/infra/redis"
	"animal-quiz-service/internal/lib/slogx"
	"animal-quiz-service/internal/token"
	transport "animal-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := slog.New(slogx.NewHandler(os.Stdout, slog.LevelDebug))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return fmt.Errorf("auth secret not configured (auth.secret or JWT_SECRET)")
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 30*24*time.Hour)
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// Storage is connected here and injected everywhere; the process fails
	// fast when the store is unreachable at boot.
	var users app.UserRepository
	var quizzes app.QuizRepository
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		users = infrapg.NewUserRepository(pool)
		quizzes = infrapg.NewQuizRepository(pool)
	} else {
		logger.Warn("no postgres url configured, using in-memory storage")
		users = memory.NewUserRepository()
		quizzes = memory.NewQuizRepository()
	}

	var keys app.AnswerKeys
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		keys = infraredis.NewAnswerKeyCache(redisClient, quizzes, cacheTTL)
	} else {
		keys = memory.NewAnswerKeyCache(quizzes, cacheTTL)
	}

	boards := app.NewScoreboardHub()
	tokens := token.NewManager(secret, tokenTTL)
	authService := app.NewAuthService(users, tokens, cfg.Auth.BcryptCost)
	quizService := app.NewQuizService(quizzes, users, keys, boards, logger)

	if cfg.Postgres.URL == "" {
		seedDemoData(ctx, authService, quizService, logger)
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(authService, quizService, boards, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting animal quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedDemoData gives the in-memory mode a teacher account and one quiz so the
// client has something to render out of the box.
func seedDemoData(ctx context.Context, auth *app.AuthService, quizzes *app.QuizService, logger *slog.Logger) {
	teacher, _, err := auth.Register(ctx, "Bu Sari", "guru@sekolah.id", "rahasia123", "teacher")
	if err != nil {
		logger.Warn("demo teacher seed failed", "err", err)
		return
	}
	quiz, err := quizzes.Create(ctx, "Hewan 1", []app.QuestionInput{
		{Text: "Gajah termasuk?", Answer: "Herbivora"},
		{Text: "Hewan apa yang dijuluki raja hutan?", Answer: "Singa"},
		{Text: "Harimau termasuk?", Answer: "Karnivora"},
	}, teacher.ID)
	if err != nil {
		logger.Warn("demo quiz seed failed", "err", err)
		return
	}
	logger.Info("seeded demo data", "teacherEmail", teacher.Email, "quizId", quiz.ID)
}
