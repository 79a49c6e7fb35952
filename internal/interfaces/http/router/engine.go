package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/infrastructure/auth"
	"github.com/possale/backend/internal/infrastructure/config"
	"github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/interfaces/http/handler"
	"github.com/possale/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Product *handler.ProductHandler
	Sale    *handler.SaleHandler
	Report  *handler.ReportHandler
	Health  *handler.HealthHandler
}

// EngineConfig holds what NewEngine needs besides the handlers
type EngineConfig struct {
	Logger         *zap.Logger
	HTTP           config.HTTPConfig
	JWTService     *auth.JWTService
	TokenBlacklist auth.TokenBlacklist
	// RequestTimeout bounds the request context; 0 disables it
	RequestTimeout time.Duration
	Tracing        middleware.TracingConfig
	// Meter records HTTP metrics when set
	Meter     metric.Meter
	Profiling bool
}

// NewEngine builds the gin engine with the middleware chain and every route
// of the /api/v1 surface.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.TracingWithConfig(cfg.Tracing),
		logger.AccessLog(log),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.Meter, log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.Timeout(cfg.RequestTimeout),
	)
	if cfg.Profiling {
		engine.Use(middleware.Profiling("/health", "/api/v1/health"))
	}

	engine.GET("/health", h.Health.Health)

	jwtConfig := middleware.DefaultJWTConfig(cfg.JWTService)
	jwtConfig.TokenBlacklist = cfg.TokenBlacklist
	jwtConfig.Logger = log

	NewRouter(engine,
		WithAPIVersion("v1"),
		WithMiddleware(
			middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
			middleware.TracingAttributeInjector(),
		),
		WithPermissionGuard(func(code string) gin.HandlerFunc {
			return middleware.RequirePermissionWithConfig(code, middleware.PermissionConfig{Logger: log})
		}),
	).Register(apiGroups(h)...).Setup()
	return engine
}

// apiGroups declares the /api/v1 surface and the permission each route needs
func apiGroups(h Handlers) []*DomainGroup {
	return []*DomainGroup{
		NewDomainGroup("health", "/health").
			GET("", h.Health.Health),

		NewDomainGroup("auth", "/auth").
			POST("/login", h.Auth.Login).
			POST("/refresh", h.Auth.RefreshToken).
			POST("/logout", h.Auth.Logout).
			GET("/me", h.Auth.GetCurrentUser),

		NewDomainGroup("users", "/users").
			POST("/admin-register", h.User.RegisterAdmin).
			Handle(http.MethodPost, "", identity.PermissionUserManage, h.User.RegisterCashier).
			Handle(http.MethodGet, "", identity.PermissionUserManage, h.User.ListCashiers).
			Handle(http.MethodPut, "/:id", identity.PermissionUserManage, h.User.UpdateCashier),

		NewDomainGroup("products", "/products").
			Handle(http.MethodGet, "", identity.PermissionProductRead, h.Product.List).
			Handle(http.MethodGet, "/barcode/:barcode", identity.PermissionProductRead, h.Product.GetByBarcode).
			Handle(http.MethodGet, "/:id", identity.PermissionProductRead, h.Product.GetByID).
			Handle(http.MethodPost, "", identity.PermissionProductCreate, h.Product.Create).
			Handle(http.MethodPut, "/:id", identity.PermissionProductUpdate, h.Product.Update).
			Handle(http.MethodDelete, "/:id", identity.PermissionProductDelete, h.Product.Delete).
			Handle(http.MethodPost, "/:id/restock", identity.PermissionProductRestock, h.Product.Restock),

		NewDomainGroup("sales", "/sales").
			Handle(http.MethodPost, "", identity.PermissionSaleCreate, h.Sale.Create).
			Handle(http.MethodGet, "", identity.PermissionSaleRead, h.Sale.List).
			Handle(http.MethodGet, "/reports", identity.PermissionReportRead, h.Report.GetSalesReports),
	}
}
