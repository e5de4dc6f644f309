package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hyroxlab/roxcoach/internal/achievements"
	"github.com/hyroxlab/roxcoach/internal/athlete"
	"github.com/hyroxlab/roxcoach/internal/auth"
	"github.com/hyroxlab/roxcoach/internal/coach"
	"github.com/hyroxlab/roxcoach/internal/config"
	"github.com/hyroxlab/roxcoach/internal/db"
	"github.com/hyroxlab/roxcoach/internal/llm"
	"github.com/hyroxlab/roxcoach/internal/middleware"
	"github.com/hyroxlab/roxcoach/internal/plan"
	"github.com/hyroxlab/roxcoach/internal/ratelimit"
	"github.com/hyroxlab/roxcoach/internal/readiness"
	"github.com/hyroxlab/roxcoach/internal/telemetry/metrics"
	"github.com/hyroxlab/roxcoach/internal/telemetry/tracing"
	"github.com/hyroxlab/roxcoach/internal/training"
	"github.com/hyroxlab/roxcoach/pkg"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config    *config.Config
	dbPool    *pgxpool.Pool
	llmClient *llm.Client

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service
	apiLimiter   *ratelimit.Limiter

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBUser:         params.Config.PostgresUser,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewService(auth.NewUserRepo(dbPool), auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "roxcoach-backend")
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	llmClient, err := llm.NewClient(
		params.Config.OllamaURL,
		params.Config.OllamaModel,
		time.Duration(params.Config.OllamaTimeoutSec)*time.Second,
		tracedHttpClient,
	)
	if err != nil {
		return nil, fmt.Errorf("new llm client: %w", err)
	}

	apiLimiter := ratelimit.New(
		params.Config.RateLimitMaxRequests,
		time.Duration(params.Config.RateLimitWindowMs)*time.Millisecond,
	)
	apiLimiter.StartCleanup(ctx, time.Duration(params.Config.RateLimitCleanupEverySec)*time.Second)

	return &Server{
		config:      params.Config,
		dbPool:      dbPool,
		llmClient:   llmClient,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(rdb),
		apiLimiter:   apiLimiter,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("roxcoach-router"))

	profilesRepo := athlete.NewRepo(s.dbPool)
	athleteHandler := athlete.NewHandler(profilesRepo)
	athleteHandler.SetupRoutes(r.PathPrefix("/profile").Subrouter())

	achievementsRepo := achievements.NewRepo(s.dbPool)
	achievementsService := achievements.NewService(achievementsRepo, s.metricsManager)
	achievementsHandler := achievements.NewHandler(achievementsRepo, profilesRepo)
	achievementsHandler.SetupRoutes(r.PathPrefix("/achievements").Subrouter())

	workoutsRepo := training.NewWorkoutRepo(s.dbPool)
	recoveryRepo := training.NewRecoveryRepo(s.dbPool)
	workoutsHandler := training.NewWorkoutHandler(
		workoutsRepo,
		recoveryRepo,
		profilesRepo,
		achievementsService,
		s.metricsManager,
	)
	workoutsHandler.SetupRoutes(r)

	benchmarksHandler := training.NewBenchmarkHandler(
		training.NewBenchmarkRepo(s.dbPool),
		training.NewRaceRepo(s.dbPool),
		profilesRepo,
		achievementsService,
		s.metricsManager,
	)
	benchmarksHandler.SetupRoutes(r)

	goalsHandler := training.NewGoalHandler(training.NewGoalRepo(s.dbPool), profilesRepo)
	goalsHandler.SetupRoutes(r)

	plansRepo := plan.NewRepo(s.dbPool)
	plansHandler := plan.NewHandler(plansRepo, plan.NewExtractor(s.llmClient), profilesRepo)
	plansHandler.SetupRoutes(r.PathPrefix("/plans").Subrouter())

	readinessEngine := readiness.NewEngine(profilesRepo, workoutsRepo, recoveryRepo, plansRepo)
	readinessHandler := readiness.NewHandler(readinessEngine, s.metricsManager)
	readinessHandler.SetupRoutes(r.PathPrefix("/readiness").Subrouter())

	coachHandler := coach.NewHandler(
		coach.NewRepo(s.dbPool),
		coach.NewAssistant(s.llmClient),
		profilesRepo,
		s.metricsManager,
	)
	coachHandler.SetupRoutes(r.PathPrefix("/chat").Subrouter())

	loginRateLimiter := redis_rate.NewLimiter(s.redisClient)
	authHandler := auth.NewHandler(s.authService)
	authRouter := r.PathPrefix("/a").Subrouter()
	authRouter.Handle("/login", middleware.LoginRateLimit(
		loginRateLimiter,
		"login",
		s.config.LoginRateLimitAllowedPerMin,
		s.metricsManager,
	)(http.HandlerFunc(authHandler.HandleLogin))).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/register", authHandler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/logout", authHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")

	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.RateLimit(s.apiLimiter, s.metricsManager))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	var shutdownErr error
	if s.redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, s.redisClient.Close())
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	shutdownErr = multierr.Append(shutdownErr, s.httpServer.Shutdown(ctx))
	shutdownErr = multierr.Append(shutdownErr, s.metricsHttpServer.Shutdown(ctx))
	if shutdownErr != nil {
		log.Errorf(" >>> shutdown errors: %s", shutdownErr)
	}
	log.Warnln("server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
