package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ksocial_backend/internal/cache"
	"ksocial_backend/internal/config"
	"ksocial_backend/internal/handlers"
	"ksocial_backend/internal/logger"
	"ksocial_backend/internal/middleware"
	"ksocial_backend/internal/models"
	chatmodels "ksocial_backend/internal/models/chat"
	"ksocial_backend/internal/realtime"
	"ksocial_backend/internal/repositories"
	chatrepo "ksocial_backend/internal/repositories/chat"
	"ksocial_backend/internal/routes"
	"ksocial_backend/internal/services"
	chatservice "ksocial_backend/internal/services/chat"
	"ksocial_backend/internal/validator"
	"ksocial_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Run собирает зависимости и держит сервер до сигнала остановки
func Run() error {
	config.LoadConfig()
	cfg := config.GetConfig()

	logger.Init(cfg.Server.Env)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	if err := migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis опционален: без него история всегда идет в БД
	var messageCache *cache.MessageCache
	if cfg.Redis.Addr != "" {
		messageCache, err = cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, message cache disabled", "error", err)
			messageCache = nil
		}
	}

	manager := ws.NewManager()
	go manager.Run(ctx)

	router := SetupRouter(db, messageCache, manager)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// SetupRouter строит полный граф зависимостей поверх готовых соединений.
// Вынесен отдельно, чтобы интеграционные тесты могли собрать приложение
// на своей БД без запуска сервера.
func SetupRouter(db *gorm.DB, messageCache *cache.MessageCache, manager *ws.Manager) *gin.Engine {
	cfg := config.GetConfig()

	// Репозитории
	userRepo := repositories.NewUserRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	conversationRepo := chatrepo.NewConversationRepository(db)
	messageRepo := chatrepo.NewMessageRepository(db)

	// Publisher: без менеджера (unit-тесты) события просто глотаются
	var publisher realtime.Publisher = realtime.NoopPublisher{}
	if manager != nil {
		publisher = manager
	}

	// Сервисы
	authService := services.NewAuthService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, publisher)
	chatService := chatservice.NewService(
		conversationRepo,
		messageRepo,
		userRepo,
		messageCache,
		publisher,
		notificationService,
		chatservice.Limits{
			MaxMessageLength:    cfg.Chat.MaxMessageLength,
			DefaultHistoryLimit: cfg.Chat.DefaultHistoryLimit,
			MaxHistoryLimit:     cfg.Chat.MaxHistoryLimit,
		},
	)

	v := validator.New()
	appHandlers := handlers.NewAppHandlers(authService, chatService, notificationService, v)
	wsHandler := ws.NewHandler(manager, chatService)

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	routes.Setup(r, appHandlers, wsHandler)
	return r
}

// migrate создает схему чата и накатывает модели
func migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE SCHEMA IF NOT EXISTS chat").Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&chatmodels.Conversation{},
		&chatmodels.ConversationParticipant{},
		&chatmodels.Message{},
		&chatmodels.MessageRead{},
	)
}
