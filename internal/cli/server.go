package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/app"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/auth"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/config"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/infra/memory"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/infra/postgres"
	redisstore "github.com/Chavan-Kartik/EthicsCardGame/internal/infra/redis"
	transport "github.com/Chavan-Kartik/EthicsCardGame/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the ethics game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
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
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	questions := cfg.QuestionsPerSession()

	var loader memory.DilemmaLoader = memory.NewStaticDilemmaLoader(sampleDilemmas())
	if pool != nil {
		loader = postgres.NewDilemmaLoader(pool)
	}

	dilemmaTTL := config.TTLDuration(cfg.Dilemma.TTL, 10*time.Minute)
	var dilemmas app.DilemmaRepository
	if redisClient != nil {
		dilemmas = redisstore.NewDilemmaRepository(redisClient, loader, dilemmaTTL)
	} else {
		dilemmas = memory.NewDilemmaRepository(loader, dilemmaTTL)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	var (
		choices transport.ChoiceStore
		history transport.HistoryStore
		users   transport.UserStore
	)
	if pool != nil {
		repo := postgres.NewChoiceRepository(pool, questions)
		choices, history = repo, repo
		users = postgres.NewUserRepository(pool)
	} else {
		// Without Postgres everything lives in process memory. Good for
		// local play, gone on restart.
		choiceLog := memory.NewChoiceLog(questions)
		choices, history = choiceLog, choiceLog
		users = memory.NewUserStore()
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = "dev-secret-change-me"
		log.Println("auth.jwt_secret not configured, using insecure development secret")
	}
	tokens := auth.NewTokenService(secret, config.TTLDuration(cfg.Auth.TokenTTL, time.Hour))

	service := app.NewGameService(store, dilemmas, choices, questions)
	apiHandler := transport.NewAPIHandler(dilemmas, choices, history, users, tokens)
	wsHandler := transport.NewWSHandler(service, tokens)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	apiHandler.Register(mux)
	mux.HandleFunc("/ws/game", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting ethics game server on :%s", finalPort)
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

// sampleDilemmas seeds a small bank per era; swap in the Postgres loader for
// the full card sets.
func sampleDilemmas() map[string]domain.DilemmaSet {
	return map[string]domain.DilemmaSet{
		"Medieval Era": {
			Period: "Medieval Era",
			Dilemmas: []domain.Dilemma{
				{
					Question: "A famine strikes your village and you control the only full granary. What do you do?",
					Choices: []domain.Choice{
						{Text: "Ration the grain fairly among all families", Score: 100, Explanation: "The village endures the winter together."},
						{Text: "Sell the grain at triple price", Score: 50, Explanation: "You profit while your neighbours go hungry."},
						{Text: "Hoard it for your own household", Score: 10, Explanation: "Families starve within sight of your stores."},
					},
				},
				{
					Question: "A travelling healer is accused of witchcraft after curing the lord's son. The mob demands a trial.",
					Choices: []domain.Choice{
						{Text: "Speak in the healer's defence before the lord", Score: 100, Explanation: "Your testimony turns the trial."},
						{Text: "Stay silent and let the trial run its course", Score: 50, Explanation: "An innocent is left to chance."},
						{Text: "Join the accusers to win the mob's favour", Score: 10, Explanation: "You trade a life for popularity."},
					},
				},
			},
		},
		"Modern Era": {
			Period: "Modern Era",
			Dilemmas: []domain.Dilemma{
				{
					Question: "You discover your employer is quietly dumping chemicals into the river. Reporting it will likely cost your job.",
					Choices: []domain.Choice{
						{Text: "Report the dumping to the regulator", Score: 100, Explanation: "The river is cleaned up, whatever it costs you."},
						{Text: "Leak it anonymously and hope it sticks", Score: 75, Explanation: "The truth gets out, but slowly."},
						{Text: "Look away and keep your paycheck", Score: 10, Explanation: "The poisoning continues with your silence."},
					},
				},
				{
					Question: "A colleague takes credit for your work in front of leadership.",
					Choices: []domain.Choice{
						{Text: "Correct the record calmly in the meeting", Score: 100, Explanation: "Honesty, delivered without malice."},
						{Text: "Complain privately to your manager", Score: 75, Explanation: "Fair, though the room never hears it."},
						{Text: "Sabotage their next project in return", Score: 10, Explanation: "Two wrongs, and now one is yours."},
					},
				},
			},
		},
	}
}
