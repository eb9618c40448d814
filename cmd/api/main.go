package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"

	"github.com/jhoicas/comic-store-api/docs"
	"github.com/jhoicas/comic-store-api/internal/application/analytics"
	"github.com/jhoicas/comic-store-api/internal/application/auth"
	"github.com/jhoicas/comic-store-api/internal/application/customers"
	appinventory "github.com/jhoicas/comic-store-api/internal/application/inventory"
	"github.com/jhoicas/comic-store-api/internal/application/orders"
	"github.com/jhoicas/comic-store-api/internal/application/ports"
	"github.com/jhoicas/comic-store-api/internal/application/purchases"
	"github.com/jhoicas/comic-store-api/internal/application/usecase"
	"github.com/jhoicas/comic-store-api/internal/domain/docnumber"
	"github.com/jhoicas/comic-store-api/internal/domain/repository"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/broker"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/cache"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/comic-store-api/internal/infrastructure/pdf"
	"github.com/jhoicas/comic-store-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/comic-store-api/internal/interfaces/http"
	"github.com/jhoicas/comic-store-api/pkg/config"
	"github.com/jhoicas/comic-store-api/pkg/logger"
	"github.com/jhoicas/comic-store-api/pkg/tracing"
)

// storage agrupa lo que cada driver aporta al resto de la aplicación.
type storage struct {
	txRunner repository.TxRunner
	repos    repository.Repos
	users    repository.UserRepository
	sales    repository.SalesReportRepository
	ping     func(ctx context.Context) error
	close    func()
}

func openStorage(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*storage, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &storage{
			txRunner: store,
			repos:    store.Repos(),
			users:    store.Users(),
			sales:    store.SalesReport(),
			ping:     func(context.Context) error { return nil },
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		txRunner: postgres.NewTxRunner(pool, cfg.TxTimeout),
		repos:    postgres.ReposFor(pool),
		users:    postgres.NewUserRepository(pool),
		sales:    postgres.NewSalesReportRepository(pool),
		ping:     pool.Ping,
		close:    pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	tp, err := tracing.Init(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar tracing")
	}
	if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
		log.Info().Str("endpoint", cfg.Tracing.JaegerEndpoint).Msg("tracing Jaeger activo")
	}

	store, err := openStorage(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión al almacenamiento")
	}
	defer store.close()

	// Eventos: Kafka si hay brokers, si no solo log.
	var events ports.EventPublisher = broker.NewLogPublisher(log.Component("events"))
	if cfg.Kafka.Enabled() {
		kp := broker.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Component("kafka"))
		defer func() { _ = kp.Close() }()
		events = kp
	}

	// Idempotencia de pedidos: Redis si está configurado, si no en memoria del proceso.
	var idempotency ports.IdempotencyStore = memory.NewIdempotencyStore(cfg.Redis.IdempotencyTTL)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer func() { _ = rdb.Close() }()
		idempotency = cache.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
	}

	ledger := appinventory.NewLedger(store.txRunner, store.repos.Movements, events, log.Component("inventory"))
	orderNumbers := docnumber.New(cfg.Business.OrderPrefix, cfg.Business.NumberAttempts)
	purchaseNumbers := docnumber.New(cfg.Business.PurchasePrefix, cfg.Business.NumberAttempts)

	// PDF: comprobante de pedido
	receipts := infrapdf.NewReceiptGenerator(cfg.App.Name)

	orderWorkflow := orders.NewWorkflow(
		store.txRunner, store.repos, ledger, orderNumbers,
		idempotency, events, receipts, log.Component("orders"),
	)
	purchaseWorkflow := purchases.NewWorkflow(
		store.txRunner, store.repos, ledger, purchaseNumbers, events, log.Component("purchases"),
	)
	customerUC := customers.NewUseCase(
		store.txRunner, store.repos.Customers, store.repos.Membership,
		events, log.Component("customers"), cfg.Business.DefaultTierID,
	)
	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	if cfg.Admin.Enabled() {
		created, err := authUC.BootstrapAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("crear administrador inicial")
		}
		if created {
			log.Info().Str("email", cfg.Admin.Email).Msg("administrador inicial creado")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	const swaggerFile = "./docs/swagger.json"
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    docs.SwaggerInfo.Title,
		}))
	}
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return err
		}
		c.Type("json")
		return c.SendString(doc)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := store.ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		UserUC:        usecase.NewUserUseCase(store.users),
		ProductUC:     usecase.NewProductUseCase(store.txRunner, store.repos.Products, ledger),
		SupplierUC:    usecase.NewSupplierUseCase(store.repos.Suppliers),
		CategoryUC:    usecase.NewCategoryUseCase(store.repos.Categories),
		Ledger:        ledger,
		Replenishment: appinventory.NewReplenishmentUseCase(store.repos.Products),
		CustomerUC:    customerUC,
		Orders:        orderWorkflow,
		Purchases:     purchaseWorkflow,
		Dashboard:     analytics.NewDashboardUseCase(store.sales),
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
