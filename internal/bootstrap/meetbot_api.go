package bootstrap

import (
	"strings"

	"meetbot_server/adapter/in/http"
	"meetbot_server/config"
	"meetbot_server/infra/middleware"
	"meetbot_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, *Dependencies, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "meetbot-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),

		// go-json is a drop-in replacement that cuts JSON overhead
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit: 1 * 1024 * 1024,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join([]string{cfg.PublicBaseURL}, ","),
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	// Health checks (no auth)
	healthHandler := http.NewHealthHandler(deps.DB, deps.Redis)
	healthHandler.Register(app)

	// Twilio webhook (no auth, replies as TwiML)
	webhookHandler := http.NewWebhookHandler(deps.Conversation)
	webhookHandler.Register(app)

	// OAuth redirect flow needs the one-shot state store
	if deps.StateStore != nil {
		oauthHandler := http.NewOAuthHandler(
			deps.CredentialService,
			deps.Conversation,
			deps.Messenger,
			deps.StateStore,
		)
		oauthHandler.Register(app)
	} else {
		logger.Warn("OAuth routes disabled: state store requires Redis")
	}

	// Admin API for birthday records, behind the JWT guard
	if deps.BirthdayRepo != nil {
		admin := app.Group("/admin", middleware.RequireAdmin(cfg.JWTSecret))
		birthdayHandler := http.NewBirthdayHandler(deps.BirthdayRepo)
		birthdayHandler.Register(admin)
	}

	logger.Info("API server initialized successfully")

	return app, deps, cleanup, nil
}
