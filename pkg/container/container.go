package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"storefront-backend/internal/config"
	infraCache "storefront-backend/internal/infrastructure/cache"
	"storefront-backend/internal/infrastructure/database"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/jwt"
	"storefront-backend/pkg/logger"

	addressRepo "storefront-backend/internal/domains/address/repository"
	cartRepo "storefront-backend/internal/domains/cart/repository"
	catalogHandler "storefront-backend/internal/domains/catalog/handler"
	catalogRepo "storefront-backend/internal/domains/catalog/repository"
	catalogService "storefront-backend/internal/domains/catalog/service"
	couponRepo "storefront-backend/internal/domains/coupon/repository"
	orderHandler "storefront-backend/internal/domains/order/handler"
	orderRepo "storefront-backend/internal/domains/order/repository"
	orderService "storefront-backend/internal/domains/order/service"
	paymentRepo "storefront-backend/internal/domains/payment/repository"
	stockRepo "storefront-backend/internal/domains/stock/repository"
)

// =====================================================
// CONTAINER
// =====================================================
// Container is the root of the dependency graph. Everything in it is a
// singleton built once at startup and shared for the process lifetime.
type Container struct {
	// Infrastructure
	Config      *config.Config
	DB          *database.PostgresDB
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	AsynqClient *asynq.Client

	// Repositories
	OrderRepo   orderRepo.OrderRepository
	VariantRepo catalogRepo.VariantRepository
	Ledger      stockRepo.Ledger
	CouponRepo  couponRepo.CouponRepository
	CartRepo    cartRepo.CartRepository
	PaymentRepo paymentRepo.PaymentMethodRepository
	AddressRepo addressRepo.AddressRepository

	// Services
	OrderService   orderService.OrderService
	PosService     orderService.PosOrderService
	VariantService catalogService.VariantService

	// Handlers
	OrderHandler   *orderHandler.OrderHandler
	PosHandler     *orderHandler.PosOrderHandler
	VariantHandler *catalogHandler.VariantHandler
}

// NewContainer builds the full dependency graph: config, then
// infrastructure, then repositories, services and handlers
func NewContainer() (*Container, error) {
	c := &Container{}

	// Step 1: Configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Info("config loaded", map[string]interface{}{
		"environment": cfg.App.Environment,
	})

	// Step 2: PostgreSQL
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}
	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	// Step 3: Redis. A cache outage degrades reads but must not stop
	// the API from serving.
	redisClient := infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisClient.Connect(context.Background()); err != nil {
		logger.Warn("redis connection failed, cached reads fall through to the database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	c.Cache = redisClient

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	// Step 4: Asynq client for post-commit background tasks
	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Step 5: Repositories
	c.OrderRepo = orderRepo.NewOrderRepository(db.Pool)
	c.VariantRepo = catalogRepo.NewVariantRepository(db.Pool)
	c.Ledger = stockRepo.NewLedger(db.Pool)
	c.CouponRepo = couponRepo.NewCouponRepository(db.Pool)
	c.CartRepo = cartRepo.NewCartRepository(db.Pool)
	c.PaymentRepo = paymentRepo.NewPaymentMethodRepository(db.Pool)
	c.AddressRepo = addressRepo.NewAddressRepository(db.Pool)

	// Step 6: Services
	defaultShippingFee, err := decimal.NewFromString(cfg.Order.DefaultShippingFee)
	if err != nil {
		return nil, fmt.Errorf("invalid default shipping fee %q: %w", cfg.Order.DefaultShippingFee, err)
	}

	c.OrderService = orderService.NewOrderService(
		c.OrderRepo,
		c.VariantRepo,
		c.Ledger,
		c.CouponRepo,
		c.CartRepo,
		c.PaymentRepo,
		c.AddressRepo,
		c.AsynqClient,
		defaultShippingFee,
		cfg.Order.MaxPendingPosDrafts,
	)
	c.PosService = orderService.NewPosOrderService(c.OrderService)
	c.VariantService = catalogService.NewVariantService(c.VariantRepo, c.Cache)

	// Step 7: Handlers
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService)
	c.PosHandler = orderHandler.NewPosOrderHandler(c.PosService)
	c.VariantHandler = catalogHandler.NewVariantHandler(c.VariantService, c.Ledger)

	logger.Info("container initialized", nil)
	return c, nil
}

// Shutdown closes infrastructure connections in reverse dependency order
func (c *Container) Shutdown() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			logger.Error("failed to close asynq client", err)
		}
	}
	if redisClient, ok := c.Cache.(*infraCache.RedisClient); ok {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis client", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	logger.Info("container shut down", nil)
}
