package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/codriving-backend/internal/api"
	"github.com/nekogravitycat/codriving-backend/internal/auth"
	"github.com/nekogravitycat/codriving-backend/internal/booking"
	"github.com/nekogravitycat/codriving-backend/internal/db"
	"github.com/nekogravitycat/codriving-backend/internal/file"
	"github.com/nekogravitycat/codriving-backend/internal/pkg/storage"
	"github.com/nekogravitycat/codriving-backend/internal/search"
	"github.com/nekogravitycat/codriving-backend/internal/trip"
	"github.com/nekogravitycat/codriving-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       logrus.FieldLogger
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int

	// SearchCache is nil when caching is disabled.
	SearchCache    search.Cache
	SearchCacheTTL time.Duration

	UploadDir          string
	UploadMaxBytes     int64
	DefaultUserCredits int

	Health []api.HealthCheck
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	transactor := db.NewTransactor(cfg.DBPool)

	store, err := storage.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("init upload storage: %w", err)
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, cfg.DefaultUserCredits, cfg.Logger)

	// File Module
	fileRepo := file.NewPgxRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, store, cfg.Logger)

	// Search Module. Trip and booking writes invalidate its cache.
	searchRepo := search.NewPgxRepository(cfg.DBPool)
	searchService := search.NewService(searchRepo, cfg.SearchCache, cfg.SearchCacheTTL, cfg.Logger)

	// Trip Module
	tripRepo := trip.NewPgxRepository(cfg.DBPool)
	tripService := trip.NewService(tripRepo, searchService, cfg.Logger)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	bookingService := booking.NewService(bookingRepo, userRepo, tripRepo, transactor, searchService, cfg.Logger)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		Logger:          cfg.Logger,
		Health:          cfg.Health,
		UserService:     userService,
		FileService:     fileService,
		TripService:     tripService,
		BookingService:  bookingService,
		SearchService:   searchService,
		JWTManager:      jwtManager,
		MaxPictureBytes: cfg.UploadMaxBytes,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		BookingService: bookingService,
	}, nil
}
