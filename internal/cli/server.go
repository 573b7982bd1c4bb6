package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkpoint-quiz/internal/app"
	"checkpoint-quiz/internal/config"
	"checkpoint-quiz/internal/domain"
	"checkpoint-quiz/internal/infra/file"
	"checkpoint-quiz/internal/infra/memory"
	pgstore "checkpoint-quiz/internal/infra/postgres"
	rediscache "checkpoint-quiz/internal/infra/redis"
	transport "checkpoint-quiz/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
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

// uploadStore is where uploaded sets live: Postgres when configured, memory otherwise.
type uploadStore interface {
	memory.QuestionSetLoader
	memory.QuestionSetLister
	app.QuestionSetStore
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var uploads uploadStore = memory.NewStaticLoader(nil)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		uploads = pgstore.NewQuestionSetStore(pool)
	}

	presetsDir := cfg.Quiz.PresetsDir
	if presetsDir == "" {
		presetsDir = "presets"
	}
	presets := file.NewCSVLoader(presetsDir)
	builtin := memory.NewStaticLoader(builtinQuestionSets())
	loader := memory.FallbackLoader{uploads, presets, builtin}
	lister := memory.MergedLister{builtin, presets, uploads}

	setTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var sets app.QuestionSetRepository
	var store app.SessionRepository
	var prefs app.PreferenceRepository
	if redisClient != nil {
		sets = rediscache.NewQuestionSetRepository(redisClient, loader, setTTL)
		store = rediscache.NewSessionStore(redisClient, redisTTL)
		prefs = rediscache.NewPreferenceStore(redisClient)
	} else {
		sets = memory.NewQuestionSetRepository(loader, setTTL)
		store = memory.NewSessionStore()
		prefs = memory.NewPreferenceStore()
	}

	service := app.NewQuizService(store, sets, uploads, lister, prefs, app.WithRunnerConfig(cfg.RunnerConfig()))

	mux := transport.NewRouter(service)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting checkpoint quiz on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// builtinQuestionSets is served even when no preset directory or database is configured.
func builtinQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"sample": {
			ID:   "sample",
			Name: "Sample",
			Questions: []domain.Question{
				{Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, Correct: "4"},
				{Prompt: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Mercury"}, Correct: "Mars"},
				{Prompt: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, Correct: "6"},
				{Prompt: "What is the boiling point of water at sea level in Celsius?", Options: []string{"90", "100", "110", "120"}, Correct: "100"},
				{Prompt: "Which gas do plants absorb from the air?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, Correct: "Carbon dioxide"},
				{Prompt: "What is 9 x 7?", Options: []string{"56", "63", "72", "49"}, Correct: "63"},
			},
		},
	}
}
