package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shop-service/config"
	httpctl "shop-service/internal/controllers/http"
	"shop-service/internal/hashing"
	"shop-service/internal/infra/cache"
	"shop-service/internal/infra/imagehost"
	"shop-service/internal/infra/kafka"
	mmysql "shop-service/internal/infra/mysql"
	"shop-service/internal/infra/payment"
	"shop-service/internal/infra/rabbitmq"
	"shop-service/internal/logger"
	mysqlrepo "shop-service/internal/repository/mysql"
	"shop-service/internal/services"
	"shop-service/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()
	if err := logger.Init(os.Getenv("ENV") == "development"); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.L()

	cfg := config.Load(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mmysql.Open(cfg.MySQL)
	if err != nil {
		log.Fatal("db: connect", zap.Error(err))
	}
	defer mmysql.Close(db)
	if err := mmysql.Migrate(db); err != nil {
		log.Fatal("db: migrate", zap.Error(err))
	}

	var store cache.CacheInterface = cache.NopCache{}
	if rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		store = cache.NewRedisCache(rdb)
	}

	var publisher rabbitmq.PublisherInterface = rabbitmq.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, order events disabled", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
		}
	}

	var mailer kafka.EmailSenderInterface = kafka.NopEmailSender{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewEmailProducer(cfg.Kafka.Brokers, cfg.Kafka.EmailTopic)
		defer producer.Close()
		mailer = producer
	} else {
		log.Info("no kafka brokers configured, emails disabled")
	}

	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		log.Warn("razorpay credentials missing, online payments will fail")
	}
	gateway := payment.NewRazorpayClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Timeout)
	uploader := imagehost.NewCloudinaryClient(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder, cfg.Cloudinary.Timeout)
	tokens := token.NewHSProvider(cfg.Tokens.AccessSecret, cfg.Tokens.RefreshSecret, cfg.Tokens.Issuer, cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL)

	orderRepo := mysqlrepo.NewOrderRepository(db)
	productRepo := mysqlrepo.NewProductRepository(db)
	userRepo := mysqlrepo.NewUserRepository(db)
	addressRepo := mysqlrepo.NewAddressRepository(db)

	orders := services.NewOrderService(orderRepo, productRepo, addressRepo, gateway, publisher, mailer, store, log, services.OrderOptions{
		NumberPrefix:       cfg.Order.NumberPrefix,
		Currency:           cfg.Razorpay.Currency,
		RepriceFromCatalog: cfg.Order.RepriceFromCatalog,
		CompensateAttempts: cfg.Order.CompensateAttempts,
	})
	users := services.NewUserService(userRepo, hashing.NewBcrypt(bcrypt.DefaultCost), tokens, mailer, log)
	addresses := services.NewAddressService(addressRepo)
	products := services.NewProductService(productRepo, store, uploader, log)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := httpctl.NewHandler(orders, users, addresses, products, log, !cfg.IsDevelopment())
	r := httpctl.NewRouter(h, httpctl.RouterConfig{
		CORSOrigin:    cfg.CORSOrigin,
		AuthPerMinute: cfg.RateLimit.AuthPerMinute,
		AuthBurst:     cfg.RateLimit.AuthBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("starting shop service", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server run", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
