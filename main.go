package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/profilehub/profilehub/handlers"
	"github.com/profilehub/profilehub/internal/config"
	"github.com/profilehub/profilehub/internal/database"
	"github.com/profilehub/profilehub/internal/directory"
	"github.com/profilehub/profilehub/internal/identity"
	"github.com/profilehub/profilehub/internal/oidc"
	"github.com/profilehub/profilehub/internal/profiles"
	"github.com/profilehub/profilehub/internal/storage"
	"github.com/profilehub/profilehub/pkg/logger"
	"github.com/profilehub/profilehub/pkg/metrics"
	"github.com/profilehub/profilehub/pkg/middleware"
	"github.com/profilehub/profilehub/pkg/respond"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: oidc=%v mongo=%v redis=%v https_required=%v",
		cfg.OIDC.IssuerURL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Pipeline.RequireHTTPS)

	// The envelope field name is fixed per deployment: "message" or "error".
	f := respond.NewFactory(cfg.Pipeline.ErrorFieldName)
	exec := respond.Executor{}

	ctx := context.Background()

	// Connect to Redis early so both the directory cache and the rate
	// limiter can use it when configured.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			redisClient = rc
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// MongoDB: retry with backoff to tolerate startup races.
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
		}
	}

	// Account directory: Mongo-backed resolve-or-create, wrapped in the
	// Redis TTL cache when Redis is up.
	var dir directory.AccountDirectory
	var cachedDir *directory.CachedDirectory
	if mongoClient != nil {
		col := mongoClient.Database(cfg.MongoDB.Database).Collection("accounts")
		dir = directory.NewMongoDirectory(col, cfg.OIDC.Provider)
		if redisClient != nil {
			cachedDir = directory.NewCachedDirectory(dir, redisClient, cfg.Cache.AccountTTL, cfg.Cache.ProfileTTL)
			dir = cachedDir
		}
	} else {
		logger.Warnf("no MongoDB connection: identities will not resolve to accounts")
	}
	aug := identity.NewAugmentor(dir)

	// Token verifier: real OIDC against the configured issuer, or the
	// signature-skipping verifier for integration environments.
	var verifier middleware.Verifier
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warn("enabling insecure token verifier (integration mode)")
			verifier = oidc.NewInsecureVerifier()
		}
	}

	// Profile repository: Mongo when connected, in-memory otherwise.
	var repo profiles.Repository
	if mongoClient != nil {
		repo = profiles.NewMongoRepo(mongoClient.Database(cfg.MongoDB.Database).Collection("profiles"))
	} else {
		logger.Warnf("using in-memory profile repository")
		repo = profiles.NewMemoryRepo()
	}
	svc := profiles.NewService(repo)
	if cachedDir != nil {
		svc = svc.WithProfileCache(cachedDir)
	}

	// Avatar storage is optional; the upload route reports it as
	// unconfigured when absent.
	var avatars *storage.AvatarStore
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		avatars, err = storage.NewAvatarStore(mcfg)
		if err != nil {
			logger.Warnf("avatar storage unavailable: %v", err)
			avatars = nil
		}
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())

	// The shield sits outermost so every failure below it, handler errors
	// and panics alike, leaves as a single JSON envelope. The body limit
	// runs before auth so oversized requests fail early with a typed error.
	r.Use(middleware.Shield(f, exec))
	r.Use(middleware.BodyLimit(cfg.Pipeline.MaxUploadLength))
	r.Use(middleware.Auth(verifier, aug))

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, f, exec, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(f, exec, cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{
			"mongo": mongoClient != nil,
			"redis": redisClient != nil || cfg.Redis.Host == "",
		}
		if cfg.OIDC.IssuerURL != "" {
			deps["oidc"] = verifier != nil
		} else {
			deps["oidc"] = true
		}
		for _, ok := range deps {
			if !ok {
				ready = false
			}
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var guards []gin.HandlerFunc
	if cfg.Pipeline.RequireHTTPS {
		guards = append(guards, middleware.RequireHTTPS(f, exec))
	}
	h := handlers.NewProfileHandler(svc, avatars, f)
	h.Register(r.Group("/api/v1"), guards...)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting profile service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
