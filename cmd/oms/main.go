// OMS 主程序
// 功能：受理客户订单，模拟交易所执行并推送全部状态变更；
// 同一进程承载风控、持仓、对账、资金与开户上下文
// 架构：DDD 多上下文单部署 + gin/gRPC + 可选 MySQL/Redis/Kafka
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	accountapp "github.com/wyfcoding/ordermanagement/internal/account/application"
	accountdomain "github.com/wyfcoding/ordermanagement/internal/account/domain"
	accountmem "github.com/wyfcoding/ordermanagement/internal/account/infrastructure/persistence/memory"
	accountmysql "github.com/wyfcoding/ordermanagement/internal/account/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ordermanagement/internal/account/infrastructure/payment"
	accounthttp "github.com/wyfcoding/ordermanagement/internal/account/interfaces/http"
	engineapp "github.com/wyfcoding/ordermanagement/internal/fixgateway/application"
	enginedomain "github.com/wyfcoding/ordermanagement/internal/fixgateway/domain"
	mdapp "github.com/wyfcoding/ordermanagement/internal/marketdata/application"
	mddomain "github.com/wyfcoding/ordermanagement/internal/marketdata/domain"
	mdmem "github.com/wyfcoding/ordermanagement/internal/marketdata/infrastructure/persistence/memory"
	mdredis "github.com/wyfcoding/ordermanagement/internal/marketdata/infrastructure/persistence/redis"
	mdconsumer "github.com/wyfcoding/ordermanagement/internal/marketdata/interfaces/consumer"
	onboardingapp "github.com/wyfcoding/ordermanagement/internal/onboarding/application"
	onboardingdomain "github.com/wyfcoding/ordermanagement/internal/onboarding/domain"
	"github.com/wyfcoding/ordermanagement/internal/onboarding/infrastructure/kyc"
	onboardingmem "github.com/wyfcoding/ordermanagement/internal/onboarding/infrastructure/persistence/memory"
	onboardingmysql "github.com/wyfcoding/ordermanagement/internal/onboarding/infrastructure/persistence/mysql"
	onboardinghttp "github.com/wyfcoding/ordermanagement/internal/onboarding/interfaces/http"
	orderapp "github.com/wyfcoding/ordermanagement/internal/order/application"
	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/internal/order/infrastructure/messaging"
	ordermem "github.com/wyfcoding/ordermanagement/internal/order/infrastructure/persistence/memory"
	ordermysql "github.com/wyfcoding/ordermanagement/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/ordermanagement/internal/order/interfaces/http"
	orderws "github.com/wyfcoding/ordermanagement/internal/order/interfaces/ws"
	positionapp "github.com/wyfcoding/ordermanagement/internal/position/application"
	positionhttp "github.com/wyfcoding/ordermanagement/internal/position/interfaces/http"
	reconapp "github.com/wyfcoding/ordermanagement/internal/reconciliation/application"
	recondomain "github.com/wyfcoding/ordermanagement/internal/reconciliation/domain"
	reconmem "github.com/wyfcoding/ordermanagement/internal/reconciliation/infrastructure/persistence/memory"
	reconmysql "github.com/wyfcoding/ordermanagement/internal/reconciliation/infrastructure/persistence/mysql"
	reconhttp "github.com/wyfcoding/ordermanagement/internal/reconciliation/interfaces/http"
	riskapp "github.com/wyfcoding/ordermanagement/internal/risk/application"
	riskdomain "github.com/wyfcoding/ordermanagement/internal/risk/domain"
	riskmem "github.com/wyfcoding/ordermanagement/internal/risk/infrastructure/persistence/memory"
	riskmysql "github.com/wyfcoding/ordermanagement/internal/risk/infrastructure/persistence/mysql"
	riskhttp "github.com/wyfcoding/ordermanagement/internal/risk/interfaces/http"
	"github.com/wyfcoding/ordermanagement/pkg/cache"
	"github.com/wyfcoding/ordermanagement/pkg/config"
	"github.com/wyfcoding/ordermanagement/pkg/db"
	"github.com/wyfcoding/ordermanagement/pkg/eventbus"
	"github.com/wyfcoding/ordermanagement/pkg/logger"
	"github.com/wyfcoding/ordermanagement/pkg/metrics"
	"github.com/wyfcoding/ordermanagement/pkg/middleware"
	"github.com/wyfcoding/ordermanagement/pkg/mq"
	"github.com/wyfcoding/ordermanagement/pkg/ratelimit"
)

func main() {
	// 1. 加载配置（文件缺失时回落到默认值，memory 驱动可裸跑）
	configPath := config.GetEnv("APP_CONFIG", "configs/config.toml")
	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting OMS",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics HTTP server", "error", err)
		}
	}

	// 4. 初始化数据库（memory 驱动时全部走内存仓储）
	var database *db.DB
	if cfg.Database.Driver == "mysql" {
		database, err = db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       cfg.Database.MaxOpenConns,
			MaxIdleConns:       cfg.Database.MaxIdleConns,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to initialize database", "error", err)
		}
		defer database.Close()
	}

	// 5. 初始化 Redis（可选：下单限流、参考价缓存）
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
		}
		defer redisCache.Close()
	}

	// 6. 初始化仓储
	repos := buildRepositories(database)

	// 7. 事件总线与发布链（可选 Kafka 镜像）
	bus := eventbus.New[orderdomain.Event]()
	var publisher orderdomain.EventPublisher = messaging.NewBusPublisher(bus, m)
	var producer *mq.KafkaProducer
	if cfg.Kafka.Enabled {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to create Kafka producer", "error", err)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaMirrorPublisher(publisher, producer, cfg.Kafka.OrderEventsTopic)
	}

	// 8. 执行引擎（与订单服务共享每单互斥锁表）
	locks := orderdomain.NewLockRegistry()
	engine := engineapp.NewExecutionEngine(enginedomain.Config{
		QueueCapacity: cfg.Engine.QueueCapacity,
		SendLatency:   time.Duration(cfg.Engine.SendLatencyMS) * time.Millisecond,
		FillLatency:   time.Duration(cfg.Engine.FillLatencyMS) * time.Millisecond,
		CancelLatency: time.Duration(cfg.Engine.CancelLatencyMS) * time.Millisecond,
		RejectProb:    cfg.Engine.RejectProb,
		PartialProb:   cfg.Engine.PartialProb,
		Seed:          cfg.Engine.Seed,
	}, repos.orders, repos.executions, publisher, locks, logger.Get(), m)
	engine.Start()

	// 9. 行情参考价（配置种子 + 可选 Redis 缓存层）
	var priceRepo mddomain.PriceRepository = mdmem.NewStore()
	if redisCache != nil {
		priceRepo = mdredis.NewCachedPrices(priceRepo, redisCache,
			time.Duration(cfg.MarketData.CacheTTL)*time.Second, logger.Get())
	}
	marketDataSvc := mdapp.NewMarketDataService(priceRepo, logger.Get())
	marketDataSvc.Seed(ctx, cfg.MarketData.Prices)

	// 10. 应用服务
	riskSvc := riskapp.NewRiskService(repos.riskLimits, marketDataSvc, logger.Get())
	svcs := services{
		order:      orderapp.NewOrderService(repos.orders, repos.executions, riskSvc, engine, publisher, locks, logger.Get(), m),
		position:   positionapp.NewPositionService(repos.positions, logger.Get()),
		risk:       riskSvc,
		recon:      reconapp.NewReconciliationService(repos.orders, repos.executions, repos.positions, repos.runs, logger.Get(), m),
		account:    accountapp.NewAccountService(repos.accounts, repos.deposits, repos.withdrawals, newPaymentProvider(cfg), logger.Get(), m),
		onboarding: onboardingapp.NewOnboardingService(repos.applications, newKYCProvider(cfg), logger.Get(), m),
	}

	// 11. 行情消费（可选）
	var priceConsumer *mdconsumer.PriceConsumer
	if cfg.Kafka.Enabled {
		kafkaConsumer, cerr := mq.NewConsumer(mq.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
		}, cfg.Kafka.PriceTopic)
		if cerr != nil {
			logger.Fatal(ctx, "Failed to create Kafka consumer", "error", cerr)
		}
		priceConsumer = mdconsumer.NewPriceConsumer(kafkaConsumer,
			mq.NewDeadLetterQueue(producer, cfg.Kafka.PriceTopic+".dlq"),
			marketDataSvc, logger.Get())
		priceConsumer.Start()
	}

	// 12. 创建 HTTP 服务器
	httpServer := createHTTPServer(cfg, m, newRateLimiter(redisCache), bus, svcs)

	// 13. 创建 gRPC 服务器
	grpcServer := createGRPCServer(cfg)

	// 14. 启动 HTTP 服务器
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		logger.Info(ctx, "Starting HTTP server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	// 15. 启动 gRPC 服务器
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Fatal(ctx, "Failed to listen on gRPC address", "error", err)
		}
		logger.Info(ctx, "Starting gRPC server", "addr", addr)
		if err := grpcServer.Serve(listener); err != nil {
			logger.Fatal(ctx, "gRPC server error", "error", err)
		}
	}()

	// 16. 优雅关停
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down OMS")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}
	grpcServer.GracefulStop()

	if priceConsumer != nil {
		priceConsumer.Stop()
	}
	engine.Stop()

	logger.Info(ctx, "OMS stopped")
}

// repositories 各上下文的持久化实现，按 database.driver 统一选择
type repositories struct {
	orders       orderdomain.OrderRepository
	executions   orderdomain.ExecutionRepository
	positions    orderdomain.PositionQuery
	riskLimits   riskdomain.RiskLimitRepository
	runs         recondomain.RunRepository
	accounts     accountdomain.AccountRepository
	deposits     accountdomain.DepositRepository
	withdrawals  accountdomain.WithdrawalRepository
	applications onboardingdomain.OnboardingRepository
}

// services 注入接口层的全部应用服务
type services struct {
	order      *orderapp.OrderService
	position   *positionapp.PositionService
	risk       *riskapp.RiskService
	recon      *reconapp.ReconciliationService
	account    *accountapp.AccountService
	onboarding *onboardingapp.OnboardingService
}

// buildRepositories 构建仓储。database 为 nil（memory 驱动）时使用内存实现，
// 订单内存存储同时承担订单、成交与持仓聚合三个口。
func buildRepositories(database *db.DB) repositories {
	if database != nil {
		gdb := database.DB
		return repositories{
			orders:       ordermysql.NewOrderRepository(gdb),
			executions:   ordermysql.NewExecutionRepository(gdb),
			positions:    ordermysql.NewPositionQuery(gdb),
			riskLimits:   riskmysql.NewRiskLimitRepository(gdb),
			runs:         reconmysql.NewRunRepository(gdb),
			accounts:     accountmysql.NewAccountRepository(gdb),
			deposits:     accountmysql.NewDepositRepository(gdb),
			withdrawals:  accountmysql.NewWithdrawalRepository(gdb),
			applications: onboardingmysql.NewOnboardingRepository(gdb),
		}
	}

	orderStore := ordermem.NewStore()
	return repositories{
		orders:       orderStore,
		executions:   orderStore,
		positions:    orderStore,
		riskLimits:   riskmem.NewStore(),
		runs:         reconmem.NewStore(),
		accounts:     accountmem.NewAccountStore(),
		deposits:     accountmem.NewDepositStore(),
		withdrawals:  accountmem.NewWithdrawalStore(),
		applications: onboardingmem.NewStore(),
	}
}

// newPaymentProvider 按配置选择支付通道实现
func newPaymentProvider(cfg *config.Config) accountdomain.PaymentProvider {
	if cfg.Account.Provider == "gateway" && cfg.Account.GatewayURL != "" {
		return payment.NewGatewayProvider(cfg.Account.GatewayURL)
	}
	return payment.NewMockProvider()
}

// newKYCProvider 按配置选择身份核验实现
func newKYCProvider(cfg *config.Config) onboardingdomain.KYCProvider {
	if cfg.KYC.Provider != "" && cfg.KYC.Provider != "mock" && cfg.KYC.VendorURL != "" {
		return kyc.NewVendorProvider(cfg.KYC.Provider, cfg.KYC.VendorURL)
	}
	return kyc.NewMockProvider()
}

// newRateLimiter Redis 可用时用分布式限流器，否则退回进程内令牌桶
func newRateLimiter(redisCache *cache.RedisCache) ratelimit.RateLimiter {
	if redisCache != nil {
		return ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	}
	return ratelimit.NewLocalRateLimiter()
}

// createHTTPServer 创建 HTTP 服务器并装配全部路由。
// 令牌桶限流只挂在下单接口上，查询与回调不受限。
func createHTTPServer(cfg *config.Config, m *metrics.Metrics, limiter ratelimit.RateLimiter,
	bus *eventbus.Bus[orderdomain.Event], svcs services) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinMetricsMiddleware(m))

	api := router.Group("/api/v1")
	orderhttp.NewOrderHandler(svcs.order).RegisterRoutes(api, middleware.RateLimitMiddleware(limiter, cfg.RateLimit))
	positionhttp.NewPositionHandler(svcs.position).RegisterRoutes(api)
	riskhttp.NewRiskHandler(svcs.risk).RegisterRoutes(api)
	reconhttp.NewReconciliationHandler(svcs.recon).RegisterRoutes(api)
	accounthttp.NewAccountHandler(svcs.account).RegisterRoutes(api)
	onboardinghttp.NewOnboardingHandler(svcs.onboarding).RegisterRoutes(api)

	orderws.NewStreamHandler(bus, cfg.Stream.ClientQueueSize,
		time.Duration(cfg.Stream.PingInterval)*time.Second, m).RegisterRoutes(router)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// createGRPCServer 创建 gRPC 服务器，注册健康检查与反射
func createGRPCServer(cfg *config.Config) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			middleware.GRPCLoggingInterceptor(),
			middleware.GRPCRecoveryInterceptor(),
		),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
	}
	server := grpc.NewServer(opts...)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(server)

	return server
}
