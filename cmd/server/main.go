package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamequest/backend/internal/aggregate"
	"gamequest/backend/internal/auth"
	"gamequest/backend/internal/config"
	"gamequest/backend/internal/database"
	"gamequest/backend/internal/handler"
	"gamequest/backend/internal/metrics"
	"gamequest/backend/pkg/jwt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Swagger imports
	_ "gamequest/backend/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const shutdownTimeout = 15 * time.Second

// @title           GameQuest API
// @version         1.0
// @description     This is the API for the GameQuest service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, database.Options{
		Driver:        cfg.DatabaseDriver,
		DSN:           cfg.DatabaseURL,
		Retries:       cfg.DBConnectRetries,
		RetryInterval: cfg.DBRetryInterval,
	}, lg.Named("database"))
	if err != nil {
		lg.Fatal("failed to open database", zap.Error(err))
	}
	defer func() { _ = store.Close() }()
	go store.RunHealthCheck(ctx, cfg.HealthInterval)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Token revocation needs redis. Without it logout still succeeds but tokens live until expiry.
	var denylist auth.Denylist
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			lg.Warn("redis unreachable at startup, revocation fails open", zap.Error(err))
		}
		denylist = auth.NewRedisDenylist(rdb)
	} else {
		lg.Warn("REDIS_ADDRESS not set, token revocation disabled")
	}

	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	engine := aggregate.NewEngine(store, lg, metrics.NewEngine(reg))
	authMW := auth.NewMiddleware(tokens, denylist, store, lg)
	h := handler.New(store, engine, tokens, authMW, lg)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(lg), metrics.NewHTTP(reg).Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	h.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info("server is running", zap.String("addr", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server shutdown failed", zap.Error(err))
		return
	}
	lg.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	return zc.Build()
}

// requestLogger writes one structured line per request.
func requestLogger(lg *zap.Logger) gin.HandlerFunc {
	lg = lg.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if uid, ok := auth.UserID(c); ok {
			fields = append(fields, zap.Uint("user_id", uid))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			lg.Error("request", fields...)
		case status >= http.StatusBadRequest:
			lg.Warn("request", fields...)
		default:
			lg.Info("request", fields...)
		}
	}
}
