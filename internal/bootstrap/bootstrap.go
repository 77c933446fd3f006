package bootstrap

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/labsphere/internal/app/auth"
	appControllers "github.com/yigit/labsphere/internal/app/controllers"
	appMigrations "github.com/yigit/labsphere/internal/app/migrations"
	appRepos "github.com/yigit/labsphere/internal/app/repositories"
	appRoutes "github.com/yigit/labsphere/internal/app/routes"
	appServices "github.com/yigit/labsphere/internal/app/services"
	"github.com/yigit/labsphere/internal/config"
	"github.com/yigit/labsphere/internal/db"
	appMiddleware "github.com/yigit/labsphere/internal/middleware"
	pkgAuth "github.com/yigit/labsphere/internal/pkg/auth"
	"github.com/yigit/labsphere/internal/pkg/email"
	"github.com/yigit/labsphere/internal/pkg/helpers"
	"github.com/yigit/labsphere/internal/pkg/logger"
	"github.com/yigit/labsphere/internal/pkg/validation"
	"github.com/yigit/labsphere/internal/pkg/websocket"
	"github.com/yigit/labsphere/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService    *appServices.AuthService
	SocialService  appServices.SocialService
	ContentService appServices.ContentService
	LabService     appServices.LabService
	AccountService appServices.AccountService
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	AuthzService   *appAuth.AuthorizationService
	EmailService   email.EmailService
	Hub            *websocket.Hub
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, applies the embedded
// migrations and seeds the default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	if cfg.Database.AutoMigrate {
		lgr.Info().Msg("Running database migrations...")
		if err := Migrate(ctx, dbPool, lgr); err != nil {
			dbPool.Close()
			return nil, err
		}
		lgr.Info().Msg("Database migrations successfully applied.")
	}

	// Seeding failures are logged; the API still works without demo data
	if err := seed.CreateDefaultData(ctx, dbPool, cfg.Seed.DemoPassword, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// Migrate applies every pending embedded migration
func Migrate(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	migrator, err := appMigrations.NewMigrator(dbPool, lgr.With().Str("component", "migrations").Logger())
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	return nil
}

// BuildDependencies initializes repositories, services and controllers. The
// live-feed hub runs until ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	deps.AuthzService = appAuth.NewAuthorizationService(
		deps.Repos.UserRepository,
		deps.Repos.LabRepository,
	)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		EmailTokenExp:   helpers.ParseDuration(cfg.JWT.EmailTokenExpiration, 1*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.Server.BaseURL,
	}, logger.Component("email"))

	deps.Hub = websocket.NewHub(logger.Component("livefeed"))
	go deps.Hub.Run(ctx)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
		deps.EmailService,
		logger.Component("auth"),
	)
	deps.SocialService = appServices.NewSocialService(
		deps.Repos.UserRepository,
		deps.Repos.LabRepository,
		deps.Repos.SubscriptionRepository,
		deps.Repos.ApprovalRepository,
		deps.AuthzService,
		deps.EmailService,
		logger.Component("social"),
	)
	deps.ContentService = appServices.NewContentService(
		deps.Repos.PostRepository,
		deps.Repos.LikeRepository,
		deps.Repos.SubscriptionRepository,
		deps.Repos.UserRepository,
		deps.Repos.LabRepository,
		deps.Repos.InterestRepository,
		deps.AuthzService,
		deps.Hub,
		appServices.ContentConfig{
			PageSize:      cfg.Feed.PageSize,
			TrendingLimit: cfg.Feed.TrendingLimit,
		},
		logger.Component("content"),
	)
	deps.LabService = appServices.NewLabService(
		deps.Repos.LabRepository,
		deps.Repos.SubscriptionRepository,
		deps.Repos.PostRepository,
		logger.Component("labs"),
	)
	deps.AccountService = appServices.NewAccountService(
		deps.Repos.UserRepository,
		deps.Repos.InterestRepository,
		deps.Repos.PostRepository,
		deps.SocialService,
		deps.LabService,
		deps.AuthService,
		logger.Component("account"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthService)

	deps.Controllers = appRoutes.Controllers{
		Auth:      appControllers.NewAuthController(deps.AuthService, logger.Component("auth")),
		Account:   appControllers.NewAccountController(deps.AccountService),
		Post:      appControllers.NewPostController(deps.ContentService, cfg.Feed.PageSize),
		Social:    appControllers.NewSocialController(deps.SocialService),
		Lab:       appControllers.NewLabController(deps.LabService),
		Discovery: appControllers.NewDiscoveryController(deps.ContentService, deps.AccountService),
		Health:    appControllers.NewHealthController(dbPool),
		LiveFeed:  websocket.NewHandler(deps.Hub, logger.Component("livefeed")),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.RegisterCustomValidations(v); err != nil {
			return nil, fmt.Errorf("failed to register custom validations: %w", err)
		}
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(logger.Component("http")), gin.Recovery())

	appRoutes.SetupSwagger(router, swaggerHost(cfg.Server.BaseURL))
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router, nil
}

func swaggerHost(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}
