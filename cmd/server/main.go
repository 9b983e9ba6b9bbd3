package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/disease-case-tracker/internal/config"
	"github.com/iliyamo/disease-case-tracker/internal/database"
	"github.com/iliyamo/disease-case-tracker/internal/geocode"
	"github.com/iliyamo/disease-case-tracker/internal/handler"
	"github.com/iliyamo/disease-case-tracker/internal/logging"
	"github.com/iliyamo/disease-case-tracker/internal/middleware"
	"github.com/iliyamo/disease-case-tracker/internal/queue"
	"github.com/iliyamo/disease-case-tracker/internal/ratelimit"
	"github.com/iliyamo/disease-case-tracker/internal/repository"
	"github.com/iliyamo/disease-case-tracker/internal/router"
	"github.com/iliyamo/disease-case-tracker/internal/session"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	sessCfg := config.LoadSessionConfig()
	rlCfg := config.LoadRateLimitConfig()
	geoCfg := config.LoadGeocodeConfig()
	cacheCfg := config.LoadCacheConfig()

	logger := logging.New(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs sessions, the login limiter and the map-data cache.  When
	// it is unreachable the first two fall back to in-process stores and the
	// cache is disabled; a single-instance deployment keeps working.
	rdb := config.NewRedisClient()

	var sessStore session.Store
	var limiter ratelimit.Limiter
	if rdb != nil {
		sessStore = session.NewRedisStore(rdb, sessCfg.Prefix, sessCfg.IdleTimeout)
		limiter = ratelimit.NewRedisLimiter(rdb, rlCfg.Prefix, rlCfg.MaxAttempts, rlCfg.Window)
	} else {
		logger.Warn().Msg("redis unavailable; using in-process session and rate-limit state")
		sessStore = session.NewMemoryStore()
		limiter = ratelimit.NewMemoryLimiter(rlCfg.MaxAttempts, rlCfg.Window)
	}
	if !rlCfg.Enabled {
		limiter = ratelimit.Disabled{}
	}
	sessions := session.NewManager(sessStore, sessCfg.IdleTimeout)

	users := repository.NewUserRepo(db)
	cases := repository.NewCaseReportRepo(db)
	diseases := repository.NewDiseaseTypeRepo(db)
	geocoder := geocode.New(geoCfg.BaseURL, geoCfg.UserAgent, geoCfg.Timeout)

	authH := handler.NewAuthHandler(cfg, sessCfg, users, sessions, limiter, logger)
	caseH := handler.NewCaseHandler(cfg, sessCfg, cases, diseases, geocoder, sessions, logger)
	mapH := handler.NewMapDataHandler(cfg, cases)

	// Background consumer turning case.reported events into the audit log.
	go func() {
		if err := queue.StartCaseConsumer(); err != nil {
			logger.Error().Err(err).Msg("case consumer stopped")
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH)
	router.RegisterCases(e, caseH, sessions, sessCfg.CookieName)
	router.RegisterMapData(e, mapH, middleware.NewRedisCache(cacheCfg, rdb))

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
