package router

import (
	"time"

	"caribepos/internal/config"
	"caribepos/internal/handler"
	"caribepos/internal/infra"
	"caribepos/internal/middleware"
	"caribepos/internal/repository"
	"caribepos/internal/service"
	"caribepos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dgii *infra.DGIIClient, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	denomRepo := repository.NewDenominationRepository(db)
	productRepo := repository.NewProductRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	ncfRepo := repository.NewNcfRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	txr := service.NewGormTxRunner(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	adminSvc := service.NewAdminService(storeRepo, denomRepo)
	productSvc := service.NewProductService(productRepo, txr)
	ncfSvc := service.NewNcfService(ncfRepo)
	shiftSvc := service.NewShiftService(shiftRepo, denomRepo, service.RoleAuthorizer{}, txr, dispatcher, cfg.ShiftReportEmail)
	saleSvc := service.NewSaleService(saleRepo, productRepo, storeRepo, shiftSvc, ncfSvc, txr, dispatcher, dgii)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	adminH := handler.NewAdminHandler(adminSvc)
	productsH := handler.NewProductHandler(productSvc)
	ncfH := handler.NewNcfHandler(ncfSvc)
	shiftsH := handler.NewShiftHandler(shiftSvc)
	salesH := handler.NewSaleHandler(saleSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, dgii))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required, used by aisle price-checker kiosks
	r.GET("/v1/precio/:barcode", productsH.GetByBarcode)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cajero, supervisor, administrador — declared per-endpoint
		anyRole := middleware.RequireRole("cajero", "supervisor", "administrador")
		supervisorUp := middleware.RequireRole("supervisor", "administrador")
		adminOnly := middleware.RequireRole("administrador")

		// Sales
		v1.POST("/ventas", anyRole, salesH.Finalize)
		v1.GET("/ventas", anyRole, salesH.List)
		v1.GET("/ventas/:id", anyRole, salesH.Get)
		v1.POST("/ventas/:id/anular", supervisorUp, salesH.Void)

		// Shifts
		turnos := v1.Group("/turnos")
		{
			turnos.POST("/abrir", anyRole, shiftsH.Open)
			turnos.POST("/cerrar", anyRole, shiftsH.Close)
			turnos.POST("/movimientos", anyRole, shiftsH.PostMovement)
			turnos.GET("/:id/esperado", anyRole, shiftsH.ExpectedTotals)
			turnos.GET("/:id/reporte", anyRole, shiftsH.Report)
			turnos.GET("", supervisorUp, shiftsH.History)
		}

		// Catalog — every authenticated role can read, writes are restricted
		v1.GET("/productos", anyRole, productsH.List)
		v1.GET("/productos/:id", anyRole, productsH.Get)
		v1.POST("/productos/:id/ajustar-stock", supervisorUp, productsH.AdjustStock)
		v1.GET("/movimientos-stock", supervisorUp, productsH.StockMovements)
		prods := v1.Group("/productos", adminOnly)
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Deactivate)
		}

		// NCF sequences — fiscal configuration, administrador only
		ncf := v1.Group("/ncf", adminOnly)
		{
			ncf.POST("/secuencias", ncfH.CreateSequence)
			ncf.PUT("/secuencias/:id", ncfH.UpdateSequence)
			ncf.GET("/secuencias", ncfH.ListSequences)
		}

		// Reference data
		v1.GET("/denominaciones", anyRole, adminH.ListDenominations)
		admin := v1.Group("", adminOnly)
		{
			admin.POST("/tiendas", adminH.CreateStore)
			admin.GET("/tiendas", adminH.ListStores)
			admin.POST("/cajas", adminH.CreateRegister)
			admin.GET("/cajas", adminH.ListRegisters)
			admin.POST("/denominaciones", adminH.CreateDenomination)
		}

		usuarios := v1.Group("/usuarios", adminOnly)
		{
			usuarios.POST("", usersH.Create)
			usuarios.GET("", usersH.List)
			usuarios.PUT("/:id", usersH.Update)
			usuarios.DELETE("/:id", usersH.Deactivate)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
