package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authorizePaymentHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/authorize_payment"
	cancelBookingHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/cancel_booking"
	cancelHoldHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/cancel_hold"
	capturePaymentHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/capture_payment"
	completeBookingHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/create_booking"
	createHoldHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/create_hold"
	getAvailabilityHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/get_booking"
	getCancellationPolicyHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/get_cancellation_policy"
	getCancellationQuoteHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/get_cancellation_quote"
	getPropertyBookingsHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/get_property_bookings"
	getUserBookingsHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/get_user_bookings"
	processRefundHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/process_refund"
	updateCancellationPolicyHandler "github.com/m04kA/SMC-StayBookingService/internal/api/handlers/update_cancellation_policy"
	"github.com/m04kA/SMC-StayBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-StayBookingService/internal/config"
	"github.com/m04kA/SMC-StayBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/booking"
	calendarRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/calendar"
	cancellationRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/cancellation"
	holdRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/hold"
	lockRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/lock"
	outboxRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/outbox"
	paymentRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/payment"
	policyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/policy"
	propertyRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/property"
	refundRepo "github.com/m04kA/SMC-StayBookingService/internal/infra/storage/refund"
	"github.com/m04kA/SMC-StayBookingService/internal/integrations/notifier"
	"github.com/m04kA/SMC-StayBookingService/internal/integrations/opsgenerator"
	"github.com/m04kA/SMC-StayBookingService/internal/integrations/paymentprovider"
	bookingsService "github.com/m04kA/SMC-StayBookingService/internal/service/bookings"
	"github.com/m04kA/SMC-StayBookingService/internal/service/inventory"
	paymentsService "github.com/m04kA/SMC-StayBookingService/internal/service/payments"
	policyService "github.com/m04kA/SMC-StayBookingService/internal/service/policy"
	cancelBookingUC "github.com/m04kA/SMC-StayBookingService/internal/usecase/cancel_booking"
	cancelHoldUC "github.com/m04kA/SMC-StayBookingService/internal/usecase/cancel_hold"
	completeBookingUC "github.com/m04kA/SMC-StayBookingService/internal/usecase/complete_booking"
	createBookingUC "github.com/m04kA/SMC-StayBookingService/internal/usecase/create_booking"
	createHoldUC "github.com/m04kA/SMC-StayBookingService/internal/usecase/create_hold"
	getAvailabilityUC "github.com/m04kA/SMC-StayBookingService/internal/usecase/get_availability"
	"github.com/m04kA/SMC-StayBookingService/internal/worker/outboxrelay"
	"github.com/m04kA/SMC-StayBookingService/internal/worker/sweeper"
	"github.com/m04kA/SMC-StayBookingService/migrations"
	"github.com/m04kA/SMC-StayBookingService/pkg/clock"
	"github.com/m04kA/SMC-StayBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-StayBookingService/pkg/logger"
	"github.com/m04kA/SMC-StayBookingService/pkg/metrics"
	"github.com/m04kA/SMC-StayBookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-StayBookingService...")

	// Метрики. При выключенных метриках коллектор nil, его методы безопасны для nil
	var (
		metricsCollector *metrics.Metrics
		dbObserver       dbmetrics.Observer
	)
	stopMetricsCh := make(chan struct{})
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		dbObserver = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	if cfg.Database.AutoMigrate {
		migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
		err := migrations.Apply(migrateCtx, db)
		cancelMigrate()
		if err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
		log.Info("Database migrations applied")
	}

	wrappedDB := dbmetrics.WrapWithDefault(db, dbObserver, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB, txmanager.WithMaxAttempts(cfg.Database.SerializableRetries))
	clk := clock.Real{}

	// Репозитории
	var (
		bookings      = bookingRepo.NewRepository(wrappedDB)
		calendar      = calendarRepo.NewRepository(wrappedDB)
		cancellations = cancellationRepo.NewRepository(wrappedDB)
		holds         = holdRepo.NewRepository(wrappedDB)
		locks         = lockRepo.NewRepository(wrappedDB)
		outbox        = outboxRepo.NewRepository(wrappedDB)
		paymentsRepo  = paymentRepo.NewRepository(wrappedDB)
		policies      = policyRepo.NewRepository(wrappedDB)
		properties    = propertyRepo.NewRepository(wrappedDB)
		refunds       = refundRepo.NewRepository(wrappedDB)
	)

	// Платежные провайдеры
	providers := paymentprovider.NewRegistry(paymentprovider.NewManual())
	if _, err := providers.Get(cfg.Payments.DefaultProvider); err != nil {
		log.Fatal("Default payment provider is not registered: %v", err)
	}

	// Сервисы
	checker := inventory.NewChecker(calendar, bookings, holds)
	policySvc := policyService.NewService(policies, properties, txMgr, log)
	bookingSvc := bookingsService.NewService(bookings, properties, policySvc, clk, log)
	paymentSvc := paymentsService.NewService(bookings, paymentsRepo, refunds, outbox, providers, txMgr, clk, metricsCollector, log)
	paymentSvc.SetDefaultProvider(cfg.Payments.DefaultProvider)

	// Use cases
	createHoldUseCase := createHoldUC.NewUseCase(
		properties,
		holds,
		locks,
		checker,
		outbox,
		txMgr,
		clk,
		createHoldUC.Settings{
			DefaultTTLMinutes: cfg.Booking.DefaultHoldTTLMinutes,
			MinTTLMinutes:     cfg.Booking.MinHoldTTLMinutes,
			MaxTTLMinutes:     cfg.Booking.MaxHoldTTLMinutes,
			MaxNights:         cfg.Booking.MaxNights,
		},
		metricsCollector,
		log,
	)
	cancelHoldUseCase := cancelHoldUC.NewUseCase(holds, txMgr, clk, log)
	createBookingUseCase := createBookingUC.NewUseCase(
		bookings,
		holds,
		properties,
		locks,
		checker,
		outbox,
		txMgr,
		clk,
		cfg.Booking.PaymentWindowMinutes,
		metricsCollector,
		log,
	)
	cancelBookingUseCase := cancelBookingUC.NewUseCase(
		bookings,
		properties,
		locks,
		policySvc,
		cancellations,
		paymentsRepo,
		refunds,
		outbox,
		txMgr,
		clk,
		metricsCollector,
		log,
	)
	completeBookingUseCase := completeBookingUC.NewUseCase(bookings, outbox, txMgr, clk, log)
	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(properties, calendar, bookings, holds, txMgr, clk, log)

	// Handlers
	createHold := createHoldHandler.NewHandler(createHoldUseCase, log)
	cancelHold := cancelHoldHandler.NewHandler(cancelHoldUseCase, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancelBookingUseCase, log)
	completeBooking := completeBookingHandler.NewHandler(completeBookingUseCase, log)
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getPropertyBookings := getPropertyBookingsHandler.NewHandler(bookingSvc, log)
	getCancellationQuote := getCancellationQuoteHandler.NewHandler(bookingSvc, log)
	getCancellationPolicy := getCancellationPolicyHandler.NewHandler(policySvc, log)
	updateCancellationPolicy := updateCancellationPolicyHandler.NewHandler(policySvc, log)
	authorizePayment := authorizePaymentHandler.NewHandler(paymentSvc, log)
	capturePayment := capturePaymentHandler.NewHandler(paymentSvc, log)
	processRefund := processRefundHandler.NewHandler(paymentSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Календарь доступности объекта
	api.HandleFunc("/properties/{propertyId}/availability", getAvailability.Handle).Methods(http.MethodGet)

	// Действующая политика отмены объекта
	api.HandleFunc("/properties/{propertyId}/cancellation-policy", getCancellationPolicy.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (Bearer JWT или X-User-ID / X-User-Role)
	// ============================================================

	authenticator := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, log)
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT secret is empty, trusting X-User-ID / X-User-Role headers")
	}

	protected := api.NewRoute().Subrouter()
	protected.Use(authenticator.Middleware)

	// --- Холды ---
	protected.HandleFunc("/holds", createHold.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/holds/{holdId}/cancel", cancelHold.Handle).Methods(http.MethodPatch)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancellation-quote", getCancellationQuote.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/internal/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Платежи ---
	protected.HandleFunc("/bookings/{bookingId}/payment/authorize", authorizePayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}/payment/capture", capturePayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/refunds/{refundId}/process", processRefund.Handle).Methods(http.MethodPost)

	// --- Управление объектом (вендор, администратор) ---
	protected.HandleFunc("/properties/{propertyId}/bookings", getPropertyBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/properties/{propertyId}/cancellation-policy", updateCancellationPolicy.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/cancellation-policy", updateCancellationPolicy.Handle).Methods(http.MethodPut)

	// ============================================================
	// BACKGROUND WORKERS
	// ============================================================

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	if cfg.Sweeper.Enabled {
		sw := sweeper.New(
			bookings,
			holds,
			outbox,
			txMgr,
			clk,
			sweeper.Config{
				Interval:  time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second,
				BatchSize: cfg.Sweeper.BatchSize,
			},
			metricsCollector,
			log,
		)
		workers.Add(1)
		go func() {
			defer workers.Done()
			sw.Run(workersCtx)
		}()
		log.Info("Expiry sweeper started (interval=%ds, batch=%d)", cfg.Sweeper.IntervalSeconds, cfg.Sweeper.BatchSize)
	}

	var publisher interface {
		Publish(ctx context.Context, event *domain.OutboxEvent) error
		Close() error
	}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := notifier.NewKafkaPublisher(
			cfg.Kafka.Brokers,
			cfg.Kafka.Topic,
			time.Duration(cfg.Kafka.Timeout)*time.Second,
			log,
		)
		if err != nil {
			log.Fatal("Failed to create kafka publisher: %v", err)
		}
		publisher = kafkaPublisher
		log.Info("Kafka publisher initialized (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		publisher = notifier.NewLogPublisher(log)
		log.Info("Kafka disabled, notifications are written to the log")
	}
	defer publisher.Close()

	routes := map[string]outboxrelay.DeliverFunc{
		domain.TopicNotifications: publisher.Publish,
		domain.TopicOps:           publisher.Publish,
	}
	if cfg.OpsGenerator.Enabled {
		opsClient := opsgenerator.NewClient(
			cfg.OpsGenerator.URL,
			time.Duration(cfg.OpsGenerator.Timeout)*time.Second,
			log,
		)
		routes[domain.TopicOps] = opsClient.Send
		log.Info("Ops generator client initialized (url=%s, timeout=%ds)", cfg.OpsGenerator.URL, cfg.OpsGenerator.Timeout)
	}

	if cfg.Outbox.Enabled {
		relay := outboxrelay.New(
			outbox,
			txMgr,
			routes,
			clk,
			outboxrelay.Config{
				Interval:    time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
				BatchSize:   cfg.Outbox.BatchSize,
				MaxAttempts: cfg.Outbox.MaxAttempts,
				BaseBackoff: time.Duration(cfg.Outbox.BaseBackoffSeconds) * time.Second,
			},
			metricsCollector,
			log,
		)
		workers.Add(1)
		go func() {
			defer workers.Done()
			relay.Run(workersCtx)
		}()
		log.Info("Outbox relay started (interval=%ds, batch=%d)", cfg.Outbox.PollIntervalSeconds, cfg.Outbox.BatchSize)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые процессы и ждем завершения текущего прохода
	stopWorkers()
	workers.Wait()
	log.Info("Background workers stopped")

	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
