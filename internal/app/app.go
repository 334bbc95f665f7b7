package app

import (
	"context"
	"coursewise_backend/internal/config"
	"coursewise_backend/internal/controller"
	"coursewise_backend/internal/repository"
	"coursewise_backend/internal/service"
	"coursewise_backend/pkg/database"
	"coursewise_backend/pkg/logger"
	"coursewise_backend/pkg/monitoring"
	"coursewise_backend/pkg/security"
	"coursewise_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	sweepStop       chan struct{}
}

type repositories struct {
	student  *repository.StudentRepository
	course   *repository.CourseRepository
	elective *repository.ElectiveRepository
	grade    *repository.GradeRepository
	session  *repository.SessionRepository
}

type services struct {
	auth           *service.AuthService
	storage        *service.StorageService
	curriculum     *service.CurriculumService
	profile        *service.ProfileService
	eligibility    *service.EligibilityService
	standing       *service.StandingService
	specialization *service.SpecializationService
	reconcile      *service.ReconcileService
	conversation   *service.ConversationService
	contextSvc     *service.ContextService
	ai             *service.AIService
	advisor        *service.AdvisorService
}

type controllers struct {
	auth     *controller.AuthController
	advisor  *controller.AdvisorController
	academic *controller.AcademicController
	catalog  *controller.CatalogController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig distributes a reloaded configuration to registered
// listeners. Wiring that was built from the old config keeps running on
// it; only callback subscribers pick up the new values.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	grade := repository.NewGradeRepository(db)
	return &repositories{
		student:  repository.NewStudentRepository(db),
		course:   repository.NewCourseRepository(db),
		elective: repository.NewElectiveRepository(db),
		grade:    grade,
		session:  repository.NewSessionRepository(db, grade),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.student, cfg)

	s.curriculum = service.NewCurriculumService(repos.course, repos.elective)
	if err := s.curriculum.Load(); err != nil {
		return nil, err
	}

	s.profile = service.NewProfileService(repos.grade, &cfg.Advisor)
	s.eligibility = service.NewEligibilityService()

	standing, err := service.NewStandingService(&cfg.Advisor)
	if err != nil {
		return nil, err
	}
	s.standing = standing

	s.specialization = service.NewSpecializationService()
	s.reconcile = service.NewReconcileService(&cfg.Advisor)

	ttl := time.Duration(cfg.Advisor.SessionTTLMinutes) * time.Minute
	s.conversation = service.NewConversationService(repos.session, ttl)

	s.contextSvc = service.NewContextService(&cfg.Advisor)
	s.ai = service.NewAIService(&cfg.AI)

	s.advisor = service.NewAdvisorService(
		repos.student,
		s.curriculum,
		s.profile,
		s.eligibility,
		s.standing,
		s.specialization,
		s.reconcile,
		s.conversation,
		s.contextSvc,
		s.ai,
		rdb,
		&cfg.Advisor,
	)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		advisor:  controller.NewAdvisorController(s.advisor, s.storage),
		academic: controller.NewAcademicController(s.advisor),
		catalog:  controller.NewCatalogController(s.advisor, s.curriculum),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services, cfg *config.Config) {
	a.sweepStop = make(chan struct{})
	interval := time.Duration(cfg.Advisor.SweepIntervalMinutes) * time.Minute
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.conversation.SweepExpired(); err != nil {
					logger.Log.Error("session sweep failed", zap.Error(err))
				}
			case <-a.sweepStop:
				return
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Server.Mode != "release")
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		// A curriculum that fails validation (cycle, unknown edge) must not serve.
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
		log.Fatalf("Failed to initialize services: %v", err)
	}
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("coursewise-advisor", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
		router.Static("/api/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.sweepStop != nil {
		close(a.sweepStop)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
