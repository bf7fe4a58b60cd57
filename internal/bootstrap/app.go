package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/gateway"
	httpHandler "github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/handler/http"
	wsHandler "github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/handler/websocket"
	gormpersistence "github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/infra/persistence/gorm"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/infra/setup"
	redisstate "github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/infra/state/redis"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/middleware"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/tasks"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/worker"
)

// Config 结构体用于存储从环境变量或文件加载的配置
type Config struct {
	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	ServerPort      string
	LogLevel        string
	RateLimitMax    int
	RateLimitWindow time.Duration
	JWTExpiryHours  int
	AppEnv          string // development / production
	KeyPrefix       string // Redis Key 前缀
	UploadDir       string // 上传文件存储目录
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)，允许只使用环境变量
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AppEnv:        os.Getenv("APP_ENV"),
		KeyPrefix:     os.Getenv("REDIS_KEY_PREFIX"),
		UploadDir:     os.Getenv("UPLOAD_DIR"),

		RateLimitMax:    100,
		RateLimitWindow: 1 * time.Second,
		JWTExpiryHours:  24,
	}

	redisDBStr := os.Getenv("REDIS_DB")
	cfg.RedisDB, _ = strconv.Atoi(redisDBStr)

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "tbs:"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App 结构体包含应用的所有组件和配置
type App struct {
	Config         *Config
	Log            *logrus.Logger
	DB             *gorm.DB
	RedisClient    *redis.Client
	AsynqClient    *asynq.Client
	AsynqServer    *worker.WorkerServer
	Gateway        *gateway.Gateway
	HttpServer     *http.Server
	redisClientOpt asynq.RedisClientOpt
	scheduler      *asynq.Scheduler
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Infof("Logger initialized (Level: %s)", logLevel.String())
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	log.Info("Database initialized")

	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Asynq client initialized")
	log.Info("Infrastructure initialized successfully")

	// 4. 初始化 Repositories
	log.Info("Initializing repositories...")
	userRepo := gormpersistence.NewGormUserRepository(db)
	formRepo := gormpersistence.NewGormFormRepository(db)
	entryRepo := gormpersistence.NewGormEntryRepository(db)
	issueRepo := gormpersistence.NewGormIssueRepository(db)
	commentRepo := gormpersistence.NewGormCommentRepository(db)
	postRepo := gormpersistence.NewGormPostRepository(db)
	uploadRepo := gormpersistence.NewGormUploadRepository(db)
	eventRepo := gormpersistence.NewGormEventLogRepository(db)
	stateRepo := redisstate.NewRedisDashboardRepository(redisClient, cfg.KeyPrefix)
	log.Info("Repositories initialized")

	// 5. 初始化实时网关组件
	// Rooms/Broadcaster/Aggregator 依赖网关自身作为 Transport，先建网关再 Bind
	log.Info("Initializing gateway...")
	registry := gateway.NewRegistry()
	gw := gateway.NewGateway(registry)
	rooms := gateway.NewRooms(registry, gw)
	broadcaster := gateway.NewBroadcaster(rooms, gw)
	log.Info("Gateway initialized")

	// 6. 初始化 Services
	log.Info("Initializing services...")
	authService, err := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	aggregator := service.NewAggregator(entryRepo, formRepo, issueRepo, stateRepo, broadcaster, asynqClient)
	formService := service.NewFormService(formRepo, entryRepo, broadcaster)
	commentService := service.NewCommentService(commentRepo, formRepo)
	postService := service.NewPostService(postRepo)
	dashboardService := service.NewDashboardService(stateRepo)
	uploadService, err := service.NewUploadService(uploadRepo, cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create UploadService: %w", err)
	}
	gw.Bind(rooms, broadcaster, aggregator)
	log.Info("Services initialized")

	// 7. 初始化 Handlers
	log.Info("Initializing handlers...")
	authHandler := httpHandler.NewAuthHandler(authService)
	formHandler := httpHandler.NewFormHandler(formService)
	entryHandler := httpHandler.NewEntryHandler(formService, aggregator)
	commentHandler := httpHandler.NewCommentHandler(commentService)
	postHandler := httpHandler.NewPostHandler(postService)
	dashboardHandler := httpHandler.NewDashboardHandler(dashboardService)
	uploadHandler := httpHandler.NewUploadHandler(uploadService)
	websocketHandler := wsHandler.NewWebSocketHandler(gw)
	log.Info("Handlers initialized")

	// 8. 初始化 Worker Server
	log.Info("Initializing worker server...")
	refreshHandler := worker.NewDashboardRefreshHandler(rooms, formRepo, entryRepo, stateRepo)
	workerServer := worker.NewWorkerServer(redisClientOpt, eventRepo, refreshHandler, log)
	log.Info("Worker server initialized")

	// 9. 初始化 Gin Engine 和路由
	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))

	router.Use(func(c *gin.Context) {
		allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
		if allowedOrigin == "" {
			allowedOrigin = "http://localhost:3000"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	formRoutes := api.Group("/forms").Use(middleware.Auth(cfg.JWTSecret))
	{
		formRoutes.POST("", formHandler.Create)
		formRoutes.GET("", formHandler.List)
		formRoutes.GET("/:id", formHandler.Get)
		// 状态流转是审批动作，一线工人无权触发
		formRoutes.POST("/:id/status", middleware.RequireRole("team_leader", "manager", "admin"), formHandler.Transition)
		formRoutes.POST("/:id/entries", entryHandler.Create)
		formRoutes.POST("/:id/comments", commentHandler.Add)
		formRoutes.GET("/:id/comments", commentHandler.List)
	}

	entryRoutes := api.Group("/entries").Use(middleware.Auth(cfg.JWTSecret))
	{
		entryRoutes.PUT("/:id/hours", entryHandler.RecordHour)
		entryRoutes.PUT("/:id/attendance", entryHandler.UpdateAttendance)
		entryRoutes.POST("/:id/issues", entryHandler.AddIssue)
		entryRoutes.DELETE("/:id/issues/:issueId", entryHandler.RemoveIssue)
	}

	commentRoutes := api.Group("/comments").Use(middleware.Auth(cfg.JWTSecret))
	{
		commentRoutes.PUT("/:id", commentHandler.Update)
		commentRoutes.DELETE("/:id", commentHandler.Delete)
	}

	dashboardRoutes := api.Group("/dashboard").Use(middleware.Auth(cfg.JWTSecret))
	{
		dashboardRoutes.GET("/lines/:id", dashboardHandler.GetLine)
	}

	postRoutes := api.Group("/posts").Use(middleware.Auth(cfg.JWTSecret))
	{
		postRoutes.POST("", postHandler.Create)
		postRoutes.GET("", postHandler.List)
		postRoutes.GET("/saved", postHandler.ListSaved)
		postRoutes.GET("/:id", postHandler.Get)
		postRoutes.POST("/:id/like", postHandler.Like)
		postRoutes.DELETE("/:id/like", postHandler.Unlike)
		postRoutes.POST("/:id/save", postHandler.Save)
		postRoutes.DELETE("/:id/save", postHandler.Unsave)
	}

	uploadRoutes := api.Group("/uploads").Use(middleware.Auth(cfg.JWTSecret))
	{
		uploadRoutes.POST("", uploadHandler.Upload)
		uploadRoutes.GET("", uploadHandler.ListMine)
		uploadRoutes.GET("/:id", uploadHandler.Get)
	}

	wsRoutes := router.Group("/ws").Use(middleware.Auth(cfg.JWTSecret))
	{
		wsRoutes.GET("", websocketHandler.HandleConnection)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	// 10. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}
	log.Info("HTTP server initialized")

	// 11. 组装 App 对象
	app := &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Gateway:        gw,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}
	log.Info("Application assembled successfully")

	return app, nil
}

// Start 启动应用的所有后台 Goroutine 和 HTTP 服务器
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	go a.Gateway.Run()
	a.Log.Info("Gateway routine started")

	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// registerPeriodicTasks 注册并启动周期性任务调度器。
func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})

	taskPayload, err := tasks.NewDashboardRefreshPayload()
	if err != nil {
		a.Log.Errorf("Failed to create dashboard refresh task payload: %v", err)
		return
	}
	task := asynq.NewTask(tasks.TypeDashboardPeriodicRefresh, taskPayload)

	schedule := "@every 5m"
	entryID, err := scheduler.Register(schedule, task, asynq.Queue("low"))
	if err != nil {
		a.Log.Errorf("Could not register periodic dashboard refresh task: %v", err)
	} else {
		a.Log.Infof("Periodic dashboard refresh task registered with schedule '%s' (EntryID: %s)", schedule, entryID)
	}

	a.scheduler = scheduler
	go func() {
		a.Log.Info("Asynq scheduler starting...")
		if err := scheduler.Run(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, asynq.ErrServerClosed) {
				a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
			} else {
				a.Log.Info("Asynq scheduler stopped.")
			}
		}
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}

	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.Gateway != nil {
		a.Gateway.Shutdown()
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		} else {
			a.Log.Info("Asynq client closed.")
		}
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   clientIP,
			"method":      method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else {
			if statusCode >= 500 {
				entry.Error("Server error")
			} else if statusCode >= 400 {
				entry.Warn("Client error")
			} else {
				entry.Info("Request handled")
			}
		}
	}
}
