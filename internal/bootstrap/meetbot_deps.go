package bootstrap

import (
	"context"
	"fmt"
	"net/url"

	"meetbot_server/adapter/out/messaging"
	"meetbot_server/adapter/out/mongodb"
	"meetbot_server/adapter/out/persistence"
	"meetbot_server/adapter/out/provider"
	"meetbot_server/adapter/out/session"
	"meetbot_server/config"
	"meetbot_server/core/domain"
	"meetbot_server/core/port/in"
	"meetbot_server/core/port/out"
	"meetbot_server/core/service/auth"
	"meetbot_server/core/service/conversation"
	"meetbot_server/core/service/reminder"
	"meetbot_server/infra/database"
	"meetbot_server/pkg/cache"
	"meetbot_server/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories and stores
	SessionStore   out.SessionStore
	CredentialRepo out.CredentialRepository
	BirthdayRepo   out.BirthdayRepository
	StateStore     *cache.RedisCache

	// Outbound
	Messenger out.Messenger
	Providers map[domain.Platform]out.MeetingProvider

	// Services
	CredentialService *auth.CredentialService
	Conversation      *conversation.Engine
	ReminderService   *reminder.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Database (pgxpool, used by readiness checks)
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		deps.DB = db
		cleanups = append(cleanups, func() { db.Close() })

		// sqlx handle for struct-scanning repositories
		sqlDB, err := database.NewSQLx(cfg.DatabaseURL)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("sqlx: %w", err)
		}
		deps.SQLDB = sqlDB
		cleanups = append(cleanups, func() { sqlDB.Close() })

		deps.CredentialRepo = persistence.NewCredentialAdapter(sqlDB)
		logger.Info("Postgres connected, credential repository ready")
	} else {
		logger.Warn("DATABASE_URL not set, delegated-auth platforms will be unavailable")
	}

	// Redis: dialog sessions and OAuth state. Falls back to an in-process
	// store so a single instance still works without Redis.
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { redisClient.Close() })

		redisCache := cache.NewRedisCache(redisClient)
		deps.SessionStore = session.NewRedisStore(redisCache, cfg.SessionTTL)
		deps.StateStore = redisCache
		logger.Info("Redis connected, session store ready (ttl=%s)", cfg.SessionTTL)
	} else {
		deps.SessionStore = session.NewMemoryStore()
		logger.Warn("REDIS_URL not set, using in-memory session store")
	}

	// MongoDB: birthday records
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
		if err != nil {
			logger.Warn("MongoDB connection failed: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})
			deps.BirthdayRepo = mongodb.NewBirthdayAdapter(mongoClient, cfg.MongoDBName)
			logger.Info("MongoDB connected, birthday repository ready")
		}
	}

	// Twilio WhatsApp transport
	if cfg.TwilioAccountSID != "" {
		deps.Messenger = messaging.NewTwilioAdapter(
			cfg.TwilioAccountSID,
			cfg.TwilioAuthToken,
			cfg.TwilioWhatsFrom,
		)
	} else {
		logger.Warn("Twilio not configured, outbound messages disabled")
	}

	// Credential lifecycle manager
	deps.CredentialService = auth.NewCredentialService(deps.CredentialRepo, &auth.MicrosoftConfig{
		ClientID:     cfg.MicrosoftClientID,
		ClientSecret: cfg.MicrosoftClientSecret,
		RedirectURL:  cfg.MicrosoftRedirectURL,
		TenantID:     cfg.MicrosoftTenantID,
	})

	// Teams needs both the credential store and the Redis-backed OAuth state
	// flow. With either missing the login link would dead-end, so the adapter
	// stays unregistered and the engine reports Teams as unavailable.
	var teamsCreds in.CredentialService
	if deps.CredentialRepo != nil && deps.StateStore != nil {
		teamsCreds = deps.CredentialService
	} else {
		logger.Warn("Teams disabled: delegated login needs DATABASE_URL and REDIS_URL")
	}

	// Meeting provider registry
	registry := provider.BuildRegistry(&provider.FactoryConfig{
		Zoom: &provider.ZoomConfig{
			ClientID:     cfg.ZoomClientID,
			ClientSecret: cfg.ZoomClientSecret,
			AccountID:    cfg.ZoomAccountID,
		},
		Meet: &provider.MeetConfig{
			CredentialsFile: cfg.GoogleCredentialsFile,
			CalendarID:      cfg.GoogleCalendarID,
		},
	}, teamsCreds)
	deps.Providers = registry

	// Time resolver: rule-based core, LLM fallback when a key is present
	var resolver conversation.TimeResolver = conversation.NewRuleResolver()
	if cfg.OpenAIAPIKey != "" {
		resolver = conversation.NewLLMResolver(cfg.OpenAIAPIKey, cfg.LLMModel, resolver)
		logger.Info("LLM time-parse fallback enabled (model=%s)", cfg.LLMModel)
	}

	loginURL := func(userID string) string {
		return fmt.Sprintf("%s/oauth/connect/teams?user=%s",
			cfg.PublicBaseURL, url.QueryEscape(userID))
	}

	deps.Conversation = conversation.NewEngine(
		deps.SessionStore,
		registry,
		deps.CredentialService,
		resolver,
		loginURL,
	)

	// Birthday reminder scheduler
	if deps.BirthdayRepo != nil && deps.Messenger != nil {
		deps.ReminderService = reminder.NewService(
			deps.BirthdayRepo,
			deps.Messenger,
			cfg.SchedulerHour,
			cfg.SchedulerTimezone,
		)
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return deps, cleanup, nil
}
