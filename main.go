package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"tracker-service/internal/activity"
	"tracker-service/internal/cache"
	"tracker-service/internal/config"
	"tracker-service/internal/db"
	grpchealth "tracker-service/internal/grpc"
	"tracker-service/internal/handlers"
	"tracker-service/internal/middleware"
	"tracker-service/internal/observability"
	"tracker-service/internal/rabbitmq"
	"tracker-service/internal/repositories"
	"tracker-service/internal/telemetry"
	"tracker-service/internal/ws"
)

func main() {
	cfg := config.Load()
	logger := config.SetupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracing")
	}

	database, err := db.Connect(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	logger.Info().
		Str("mode", rabbitmq.PublisherMode(publisher)).
		Str("reason", rabbitmq.PublisherNoopReason(publisher)).
		Msg("event publisher ready")
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.activity", cfg.ServiceName, cfg.Environment, logger)

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	attendanceRepo := repositories.NewAttendanceRepo(database)
	var locationRepo repositories.LocationRepository = repositories.NewLocationRepo(database)
	if cfg.RedisURL != "" {
		locationCache, err := cache.NewRedisLocationCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, serving locations from postgres")
		} else {
			defer locationCache.Close()
			locationRepo = repositories.NewCachedLocationRepo(locationRepo, locationCache, logger)
		}
	}

	hub := ws.NewHub(logger)
	wsRouter := ws.NewRouter(hub, messageRepo, locationRepo, logger, ws.WithHistoryLimit(cfg.HistoryLimit))
	wsHandler := ws.NewHandler(wsRouter, logger, cfg.WSPingInterval, cfg.WSReadLimit)

	recorder := activity.NewRecorder(userRepo, messageRepo, hub, auditEmitter, cfg.Location(), logger)
	userHandler := handlers.NewUserHandler(userRepo)
	locationHandler := handlers.NewLocationHandler(locationRepo, hub, recorder, logger)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceRepo, userRepo, recorder, cfg.Location(), logger)
	messageHandler := handlers.NewMessageHandler(messageRepo)
	presenceHandler := handlers.NewPresenceHandler(hub.Registry())

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		otelgin.Middleware(cfg.ServiceName),
		observability.HTTPMetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.Handle)
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.Location(), cfg.DebugRoutes)

	api := router.Group("/api", middleware.AuthMiddleware(cfg.JWTSecret))
	api.GET("/users", userHandler.ListUsers)
	api.GET("/users/:id", userHandler.GetUser)
	api.GET("/locations", locationHandler.CurrentLocations)
	api.POST("/locations", locationHandler.CreateLocation)
	api.GET("/locations/user/:userId", locationHandler.UserLocations)
	api.GET("/attendance", attendanceHandler.Today)
	api.POST("/attendance", attendanceHandler.CheckIn)
	api.PATCH("/attendance/:id", attendanceHandler.Update)
	api.GET("/attendance/user/:userId", attendanceHandler.UserAttendance)
	api.GET("/messages", messageHandler.RecentMessages)
	api.GET("/presence", presenceHandler.Online)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	health := grpchealth.NewHealthServer(cfg.ServiceName, logger)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("failed to listen for grpc")
	}
	go func() {
		if err := health.Serve(grpcListener); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()
	health.SetServing(true)
	auditEmitter.Emit(ctx, "INFO", "service started", "", nil)

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	health.SetServing(false)
	auditEmitter.Emit(context.WithoutCancel(ctx), "INFO", "service stopping", "", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.CloseAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	health.Stop()
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracer shutdown failed")
	}
}
