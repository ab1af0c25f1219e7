package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/postgres"
	redisinfra "trivia-quiz-service/internal/infra/redis"
	transport "trivia-quiz-service/internal/transport/http"
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

// questionBank is what both cache flavours offer.
type questionBank interface {
	app.QuestionBank
	transport.StatsProvider
}

// persistence is satisfied by both the memory and Postgres stores.
type persistence interface {
	app.AttemptRecorder
	app.BadgeStore
	app.RankingStore
	app.HistoryStore
	app.CategoryStore
	app.RecentAttempts
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	sessionTTL := config.Duration(cfg.Redis.TTL, 2*time.Hour)

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	var store persistence
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewQuestionLoader(pool)

		db := postgres.OpenDB(cfg.Postgres.URL)
		defer db.Close()
		store = postgres.NewStore(db)
	} else {
		log.Printf("postgres not configured, using sample questions and in-memory profiles")
		memStore := memory.NewStore(memory.DefaultBadges())
		memStore.SetCategories(sampleCategories())
		store = memStore
	}

	cacheTTL := config.Duration(cfg.Quiz.CacheTTL, 5*time.Minute)
	var bank questionBank
	var sessions app.SessionRepository
	if redisClient != nil {
		bank = redisinfra.NewQuestionBank(redisClient, loader, cacheTTL)
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		bank = memory.NewQuestionBank(loader, cacheTTL)
		sessions = memory.NewSessionStore()
	}

	ranking := app.NewRankingService(store, config.Duration(cfg.Quiz.WeeklyWindow, app.DefaultWeeklyWindow))
	engine := app.NewQuizEngine(bank, store, app.NewBadgeEvaluator(store), ranking,
		app.WithPoolSize(config.IntOr(cfg.Quiz.PoolSize, app.DefaultPoolSize)))
	quizzes := app.NewQuizService(sessions, engine)
	profiles := app.NewProfileService(store, store, ranking)
	catalog := app.NewCatalogService(store, store, store)

	leaderboardSize := config.IntOr(cfg.Quiz.LeaderboardSize, 10)
	wsHandler := transport.NewWSHandler(quizzes, ranking, profiles, leaderboardSize)
	apiHandler := transport.NewAPIHandler(ranking, profiles, catalog, bank, leaderboardSize)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting trivia quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// sampleCategories matches the category ids used by sampleQuestions.
func sampleCategories() []domain.Category {
	return []domain.Category{
		{ID: 1, Name: "Mathematics", Icon: "calculator", Description: "Numbers, shapes and puzzles"},
		{ID: 2, Name: "Science", Icon: "flask", Description: "Physics, chemistry and the planets"},
		{ID: 3, Name: "History", Icon: "landmark", Description: "People and events that shaped the world"},
		{ID: 4, Name: "Geography", Icon: "globe", Description: "Capitals, rivers and continents"},
	}
}

// sampleQuestions seeds the in-memory bank when no database is configured.
func sampleQuestions() []domain.Question {
	type seed struct {
		category int64
		text     string
		answers  [domain.AnswersPerQuestion]string
		correct  int
	}
	seeds := []seed{
		{1, "What is 7 x 8?", [4]string{"54", "56", "58", "64"}, 1},
		{1, "What is the square root of 144?", [4]string{"11", "12", "13", "14"}, 1},
		{1, "How many sides does a hexagon have?", [4]string{"5", "6", "7", "8"}, 1},
		{2, "Which planet is known as the Red Planet?", [4]string{"Venus", "Jupiter", "Mars", "Saturn"}, 2},
		{2, "What gas do plants absorb from the air?", [4]string{"Oxygen", "Nitrogen", "Helium", "Carbon dioxide"}, 3},
		{2, "What is the chemical symbol for gold?", [4]string{"Au", "Ag", "Gd", "Go"}, 0},
		{3, "In which year did the Berlin Wall fall?", [4]string{"1987", "1989", "1991", "1993"}, 1},
		{3, "Who painted the Mona Lisa?", [4]string{"Michelangelo", "Raphael", "Leonardo da Vinci", "Donatello"}, 2},
		{4, "What is the capital of Australia?", [4]string{"Sydney", "Melbourne", "Perth", "Canberra"}, 3},
		{4, "Which is the longest river in South America?", [4]string{"Amazon", "Parana", "Orinoco", "Magdalena"}, 0},
	}

	questions := make([]domain.Question, 0, len(seeds))
	for i, s := range seeds {
		id := int64(i + 1)
		answers := make([]domain.Answer, 0, len(s.answers))
		for j, text := range s.answers {
			answers = append(answers, domain.Answer{ID: id*10 + int64(j), Text: text, Correct: j == s.correct})
		}
		questions = append(questions, domain.Question{
			ID:         id,
			CategoryID: s.category,
			Text:       s.text,
			Points:     domain.DefaultQuestionPoints,
			Active:     true,
			Answers:    answers,
		})
	}
	return questions
}
