package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/campuspulse/campuspulse/internal/app/controllers"
	appMigrations "github.com/campuspulse/campuspulse/internal/app/migrations"
	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/app/repositories/memory"
	mongorepo "github.com/campuspulse/campuspulse/internal/app/repositories/mongo"
	pgrepo "github.com/campuspulse/campuspulse/internal/app/repositories/postgres"
	"github.com/campuspulse/campuspulse/internal/app/routes"
	"github.com/campuspulse/campuspulse/internal/app/services"
	"github.com/campuspulse/campuspulse/internal/config"
	"github.com/campuspulse/campuspulse/internal/db"
	"github.com/campuspulse/campuspulse/internal/middleware"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/campuspulse/campuspulse/internal/pkg/cache"
	"github.com/campuspulse/campuspulse/internal/pkg/helpers"
	"github.com/campuspulse/campuspulse/internal/pkg/logger"
	"github.com/campuspulse/campuspulse/internal/pkg/metrics"
	"github.com/campuspulse/campuspulse/internal/pkg/notify"
	"github.com/campuspulse/campuspulse/internal/pkg/textgen"
	"github.com/campuspulse/campuspulse/internal/pkg/validation"
	"github.com/campuspulse/campuspulse/internal/seed"
	"github.com/campuspulse/campuspulse/migrations"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Closer releases a resource during shutdown
type Closer func(ctx context.Context) error

// Storage is the selected persistence backend
type Storage struct {
	Repos *repositories.Repositories
	Close Closer
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos   *repositories.Repositories
	Cache   *cache.Client
	Metrics *metrics.Metrics

	JWTService        *auth.JWTService
	AuthService       services.AuthService
	CourseService     services.CourseService
	StudentService    services.StudentService
	EnrollmentService services.EnrollmentService
	AIService         services.AIService
	DashboardService  services.DashboardService
	ExportService     services.ExportService

	AuthController       *controllers.AuthController
	CourseController     *controllers.CourseController
	StudentController    *controllers.StudentController
	EnrollmentController *controllers.EnrollmentController
	AIController         *controllers.AIController
	DashboardController  *controllers.DashboardController
	AuthMiddleware       *middleware.AuthMiddleware

	Logger zerolog.Logger
}

// WaitBackground blocks until detached work started by the services has
// finished.
func (d *Dependencies) WaitBackground() {
	if w, ok := d.CourseService.(interface{ Wait() }); ok {
		w.Wait()
	}
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(filepath.Join("configs", "config.yaml"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:   level,
		Pretty:  strings.EqualFold(cfg.Logging.Format, "text"),
		Service: "campuspulse",
	})

	lgr.Info().
		Str("logLevel", string(level)).
		Str("logFormat", cfg.Logging.Format).
		Str("driver", cfg.Database.Driver).
		Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage connects the configured backend and returns its repositories.
// Postgres schemas are migrated before the repositories are handed out.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Storage, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		lgr.Info().Str("host", cfg.Database.Host).Msg("Establishing PostgreSQL connection...")
		database, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}

		if err := migrate(ctx, cfg, database, lgr); err != nil {
			database.Close()
			return nil, err
		}

		return &Storage{
			Repos: pgrepo.NewRepositories(database),
			Close: func(context.Context) error {
				database.Close()
				return nil
			},
		}, nil

	case config.DriverMongo:
		lgr.Info().Str("database", cfg.Mongo.Database).Msg("Establishing MongoDB connection...")
		database, err := db.NewMongoDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		return &Storage{Repos: mongorepo.NewRepositories(database), Close: database.Close}, nil

	case config.DriverMemory:
		lgr.Warn().Msg("Using in-memory storage, data is lost on restart")
		return &Storage{
			Repos: memory.NewRepositories(memory.NewStore()),
			Close: func(context.Context) error { return nil },
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

func migrate(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	var source fs.FS = migrations.FS
	if dir := cfg.Database.MigrationsPath; dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("migrations directory not found at %s: %w", dir, err)
		}
		source = os.DirFS(dir)
	}

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(database.Pool, lgr).Apply(ctx, source); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// BuildDependencies initializes the cache, external clients, services and
// controllers on top of repos.
func BuildDependencies(ctx context.Context, cfg *config.Config, repos *repositories.Repositories, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Repos: repos, Metrics: metrics.New(), Logger: lgr}

	client, err := cache.NewClient(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to Redis")
		return nil, err
	}
	deps.Cache = client

	// A nil *cache.Client must not be stored in the interfaces.
	var sessions cache.SessionStore
	if client != nil {
		sessions = client
	}

	generator, err := textgen.New(ctx, textgen.Config{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: helpers.DurationSetting(lgr, "ai.timeout", cfg.AI.Timeout, 30*time.Second),
	}, lgr)
	if err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize text generation: %w", err)
	}

	notifier := notify.New(notify.Config{
		SendGridAPIKey: cfg.Mail.SendGridAPIKey,
		FromName:       cfg.Mail.FromName,
		FromAddress:    cfg.Mail.FromAddress,
		AppURL:         cfg.Mail.AppURL,
	}, lgr)

	deps.JWTService = auth.NewJWTService(auth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.DurationSetting(lgr, "jwt.access_token_expiration", cfg.JWT.AccessTokenExpiration, 12*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthService = services.NewAuthService(repos.Students, deps.JWTService, sessions, services.AdminAccount{
		ID:       cfg.Auth.AdminID,
		Email:    cfg.Auth.AdminEmail,
		Password: cfg.Auth.AdminPassword,
	}, deps.Metrics, lgr)
	deps.CourseService = services.NewCourseService(repos.Courses, repos.Students, notifier, lgr)
	deps.StudentService = services.NewStudentService(repos.Students, repos.Enrollments, lgr)
	deps.EnrollmentService = services.NewEnrollmentService(repos.Enrollments, repos.Students, repos.Courses, deps.Metrics, lgr)
	deps.AIService = services.NewAIService(generator, deps.Metrics, lgr)
	deps.DashboardService = services.NewDashboardService(repos, lgr)
	deps.ExportService = services.NewExportService(repos.Courses, lgr)

	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.JWTService, sessions, lgr)

	deps.AuthController = controllers.NewAuthController(deps.AuthService, lgr)
	deps.CourseController = controllers.NewCourseController(deps.CourseService, deps.ExportService)
	deps.StudentController = controllers.NewStudentController(deps.StudentService)
	deps.EnrollmentController = controllers.NewEnrollmentController(deps.EnrollmentService)
	deps.AIController = controllers.NewAIController(deps.AIService)
	deps.DashboardController = controllers.NewDashboardController(deps.DashboardService)

	if cfg.Seed.DemoCourses {
		if err := seed.CreateDemoCourses(ctx, repos.Courses, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create demo courses, proceeding anyway...")
		}
	}

	return deps, nil
}

// Close releases the connections owned by the dependencies
func (d *Dependencies) Close(context.Context) error {
	if d.Cache == nil {
		return nil
	}
	return d.Cache.Close()
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	lgr.Info().Str("mode", gin.Mode()).Msg("Gin mode set")

	validation.InstallGinValidator()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(lgr),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Server.AllowOrigins),
		deps.Metrics.Middleware(),
	)

	var limiter cache.RateLimiter
	if deps.Cache != nil {
		limiter = deps.Cache
	}
	window := helpers.DurationSetting(lgr, "auth.login_rate_window", cfg.Auth.LoginRateWindow, time.Minute)
	loginLimit := middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, window, lgr)

	routes.SetupRouter(router,
		deps.AuthController,
		deps.CourseController,
		deps.StudentController,
		deps.EnrollmentController,
		deps.AIController,
		deps.DashboardController,
		deps.AuthMiddleware,
		loginLimit,
	)
	routes.SetupOperationalRoutes(router, deps.Repos.Ping, deps.Metrics.Handler())

	return router
}
