package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/internal/auth"
	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/notify"
	"taskflow/internal/repository"
	"taskflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
	Log    *logrus.Logger

	Store      *repository.Store
	Users      *service.UserService
	Dispatcher *notify.Dispatcher

	relay *notify.RedisRelay
}

// Init подключается к базе и собирает сервер
func Init(cfg *config.Config, log *logrus.Logger) (*Server, error) {
	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	return New(cfg, log, db), nil
}

// New собирает репозитории, сервисы и маршруты поверх уже открытой базы
func New(cfg *config.Config, log *logrus.Logger, db *gorm.DB) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store := repository.NewStore(db)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiryHours)
	identity := auth.NewIdentityProvider(tokens, store.Users)

	// Уведомления: локальная доставка, либо через Redis между инстансами
	var opts []notify.Option
	relay := newRelay(cfg, log)
	if relay != nil {
		opts = append(opts, notify.WithRelay(relay))
	}
	dispatcher := notify.NewDispatcher(log, cfg.NotifyQueueSize, opts...)

	// Initialize services
	userService := service.NewUserService(store, tokens, log)
	orgService := service.NewOrganizationService(store, log)
	teamService := service.NewTeamService(store, log)
	taskService := service.NewTaskService(store, dispatcher, log)
	dashboardService := service.NewDashboardService(store)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService, log)
	orgHandler := handler.NewOrganizationHandler(orgService, log)
	teamHandler := handler.NewTeamHandler(teamService, log)
	taskHandler := handler.NewTaskHandler(taskService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)
	wsHandler := notify.NewWSHandler(dispatcher, identity, cfg.WSAllowedOrigins, log)

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Websocket живет дольше таймаута запроса и авторизуется по ?token=
	r.GET("/ws/notifications", wsHandler.Notifications)

	api := r.Group("/")
	api.Use(middleware.Timeout(cfg.RequestTimeout))

	// Public routes
	api.POST("/register", userHandler.Register)
	api.POST("/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := api.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(identity))
	{
		// Organization routes
		authorized.POST("/organization/create", orgHandler.Create)
		authorized.POST("/organizations/:org_id/add_user/:user_id", orgHandler.AssignUser)

		// Team routes
		authorized.POST("/team-create", teamHandler.Create)
		authorized.DELETE("/team/:id", teamHandler.Delete)
		authorized.POST("/team/:id/add-member", teamHandler.AddMember)
		authorized.DELETE("/team/:id/remove-member", teamHandler.RemoveMember)
		authorized.GET("/team/:id/members", teamHandler.ListMembers)
		authorized.GET("/roles", teamHandler.Roles)

		// Task routes
		authorized.GET("/task/sortfilter", taskHandler.SortFilter)
		authorized.POST("/task/:team_id/create-task", taskHandler.Create)
		authorized.PUT("/task/:team_id/update-task", taskHandler.Update)
		authorized.DELETE("/task/:team_id/delete-task", taskHandler.Delete)
		authorized.GET("/task/:team_id/tasks/:task_id", taskHandler.GetByID)

		// Dashboard routes
		authorized.GET("/dashboard/user-dashboard", dashboardHandler.User)
		authorized.GET("/dashboard/admin-dashboard", dashboardHandler.Admin)
		authorized.GET("/dashboard/team-dashboard/:team_id", dashboardHandler.Team)
	}

	return &Server{
		Engine:     r,
		DB:         db,
		Config:     cfg,
		Log:        log,
		Store:      store,
		Users:      userService,
		Dispatcher: dispatcher,
		relay:      relay,
	}
}

// newRelay returns nil when Redis is disabled or unreachable; the dispatcher
// then delivers only to local connections.
func newRelay(cfg *config.Config, log *logrus.Logger) *notify.RedisRelay {
	if !cfg.RedisEnabled {
		return nil
	}
	relay := notify.NewRedisRelay(notify.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Channel:  cfg.RedisChannel,
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := relay.Ping(ctx); err != nil {
		log.WithError(err).Warn("⚠️  Redis unavailable, notifications stay local")
		_ = relay.Close()
		return nil
	}
	log.WithField("addr", cfg.RedisAddr).Info("✅ Connected to Redis")
	return relay
}

func (s *Server) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Dispatcher.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.Log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Log.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.Log.Errorf("❌ Server forced to shutdown: %s", err)
	}

	cancel()
	s.Dispatcher.Close()
	if s.relay != nil {
		_ = s.relay.Close()
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	s.Log.Info("✅ Server exited properly")
}
