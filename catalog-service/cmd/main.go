package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"catalogadmin/catalog-service/internal/app/catalog/config"
	"catalogadmin/catalog-service/internal/app/catalog/handler"
	"catalogadmin/catalog-service/internal/app/catalog/repository"
	"catalogadmin/catalog-service/internal/app/catalog/service"
	"catalogadmin/catalog-service/internal/app/catalog/storage"
	"catalogadmin/catalog-service/internal/app/catalog/util"
	"catalogadmin/pkg/logger"
)

const serviceName = "catalog-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Log.Level)
	if cfg.Log.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Log.LogstashAddr, serviceName, cfg.Log.Level); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Log.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	// Цены отдаются числом, а не строкой
	decimal.MarshalJSONWithoutQuotes = true

	// === POSTGRESQL ===
	// Один пул pgx: справочник вариантов читается напрямую, товары - через gorm поверх того же пула
	pool, err := connectDB(context.Background(), cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(pool),
	}), &gorm.Config{
		SkipDefaultTransaction:   true,
		DisableNestedTransaction: true,
		Logger:                   gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize gorm")
	}

	// === REDIS ===
	// Кеш справочника вариантов необязателен: без Redis сервис читает из БД
	var variantCache util.VariantCache
	redisClient, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, variant cache disabled")
	} else {
		defer redisClient.Close()
		variantCache = redisClient
		logger.Info().Str("addr", cfg.Redis.Address()).Msg("Connected to Redis")
	}

	// === KAFKA ===
	var publisher util.MessagePublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
		logger.Info().Str("topic", cfg.Kafka.Topic).Strs("brokers", cfg.Kafka.Brokers).Msg("Initialized Kafka producer")
	}

	blobs := storage.NewFileStore(cfg.Storage.Root)

	productRepo := repository.NewProductRepository(gormDB)
	variantRepo := repository.NewVariantRepository(pool)

	catalogService := service.NewCatalogService(
		productRepo,
		variantRepo,
		variantCache,
		publisher,
		blobs,
		cfg.Redis.VariantsTTL,
	)

	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)
	if !authMiddleware.Enabled() {
		logger.Warn().Msg("JWT_SECRET is empty, authentication disabled")
	}
	catalogHandler := handler.NewCatalogHandler(catalogService)
	router := handler.SetupRoutes(catalogHandler, authMiddleware)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // загрузка изображений в base64 может быть долгой
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Address()).Msg("Starting Catalog Service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Catalog Service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Catalog Service stopped gracefully")
}

// connectDB устанавливает соединение с PostgreSQL используя pgx connection pool
// 10 попыток с паузой: в Docker PostgreSQL может стартовать позже сервиса
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("Failed to connect to database")
		time.Sleep(3 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
	}

	return pool, nil
}
