package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/codriving-backend/internal/auth"
	"github.com/nekogravitycat/codriving-backend/internal/booking"
	bookingHttp "github.com/nekogravitycat/codriving-backend/internal/booking/http"
	"github.com/nekogravitycat/codriving-backend/internal/file"
	fileHttp "github.com/nekogravitycat/codriving-backend/internal/file/http"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/logger"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/request"
	"github.com/nekogravitycat/codriving-backend/internal/search"
	searchHttp "github.com/nekogravitycat/codriving-backend/internal/search/http"
	"github.com/nekogravitycat/codriving-backend/internal/trip"
	tripHttp "github.com/nekogravitycat/codriving-backend/internal/trip/http"
	"github.com/nekogravitycat/codriving-backend/internal/user"
	userHttp "github.com/nekogravitycat/codriving-backend/internal/user/http"
)

// Config carries the services the router exposes.
type Config struct {
	IsProduction    bool
	ProdOrigins     string
	Logger          logrus.FieldLogger
	Health          []HealthCheck
	UserService     user.Service
	FileService     file.Service
	TripService     trip.Service
	BookingService  booking.Service
	SearchService   search.Service
	JWTManager      *auth.JWTManager
	MaxPictureBytes int64
}

// NewRouter assembles middleware (CORS, request logging, auth) and registers every module under /v1.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	request.RegisterValidators()

	r := gin.New()
	r.Use(logger.Middleware(cfg.Logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg)))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)
	sysAdminMiddleware := RequireSystemAdmin(cfg.UserService)

	userHandler := userHttp.NewHandler(cfg.UserService, cfg.FileService, cfg.JWTManager, cfg.MaxPictureBytes)
	fileHandler := fileHttp.NewHandler(cfg.FileService)
	tripHandler := tripHttp.NewTripHandler(cfg.TripService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.UserService)
	searchHandler := searchHttp.NewSearchHandler(cfg.SearchService)

	r.GET("/healthz", healthHandler(cfg.Health))

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		fileHttp.RegisterRoutes(v1, fileHandler)
		tripHttp.RegisterRoutes(v1, tripHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, sysAdminMiddleware)
		searchHttp.RegisterRoutes(v1, searchHandler)
	}

	return r
}

func corsConfig(cfg Config) cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:8081", // Swagger
	}
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		config.AllowOrigins = nil
		for _, o := range strings.Split(cfg.ProdOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				config.AllowOrigins = append(config.AllowOrigins, o)
			}
		}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader}
	config.ExposeHeaders = []string{logger.RequestIDHeader}
	return config
}
