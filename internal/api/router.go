package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agrovision/farm-api/internal/api/handler"
	"github.com/agrovision/farm-api/internal/api/middleware"
	"github.com/agrovision/farm-api/internal/core/domain"
	"github.com/agrovision/farm-api/internal/core/ports"
	"github.com/agrovision/farm-api/internal/core/service"
	mongodb "github.com/agrovision/farm-api/internal/infrastructure/db/mongo"
	redisdb "github.com/agrovision/farm-api/internal/infrastructure/db/redis"
	"github.com/agrovision/farm-api/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	cfg *config.Config,
	db *mongo.Database,
	rdb *redis.Client,
	recorder ports.AuditRecorder,
	log zerolog.Logger,
) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("agrovision"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	deptRepo := mongodb.NewDepartmentRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)
	throttle := redisdb.NewLoginThrottle(rdb)

	tokens, err := service.NewTokenService(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTTL,
		cfg.JWT.RefreshTTL,
	)
	if err != nil {
		return nil, err
	}

	authService := service.NewAuthService(userRepo, tokens, throttle, recorder, log)
	userService := service.NewUserService(userRepo, deptRepo, recorder, log)
	deptService := service.NewDepartmentService(deptRepo, userRepo, log)

	authHandler := handler.NewAuthHandler(authService, userService, cfg.IsProduction())
	userHandler := handler.NewUserHandler(userService, auditRepo)
	deptHandler := handler.NewDepartmentHandler(deptService)

	authn := middleware.Authenticate(tokens, userRepo)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh-token", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout, authn)
	auth.GET("/me", authHandler.Me, authn)

	// --- Admin user management ---
	users := e.Group("/api/users", authn, middleware.RequireAdmin())
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.PUT("/:id/role", userHandler.UpdateRole)
	users.PUT("/:id/department", userHandler.UpdateDepartment)
	users.PUT("/:id/usertype", userHandler.UpdateUserType)
	users.GET("/:id/audit", userHandler.Audit)

	// --- Department directory ---
	depts := e.Group("/api/departments", authn)
	depts.GET("", deptHandler.List)
	depts.GET("/:id", deptHandler.Get)
	depts.GET("/:id/users", deptHandler.Users,
		middleware.RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleDepartmentManager),
		middleware.RequireDepartmentAccess())
	depts.POST("", deptHandler.Create, middleware.RequireAdmin())
	depts.PUT("/:id", deptHandler.Update, middleware.RequireAdmin())
	depts.DELETE("/:id", deptHandler.Delete, middleware.RequireAdmin())

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
