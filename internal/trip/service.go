package trip

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateInput is a driver's request to publish a trip.
type CreateInput struct {
	CarID             *string
	DepartureCity     string
	DepartureLocation string
	DepartureDate     string // YYYY-MM-DD
	DepartureHour     string // HH:MM
	ArrivalCity       string
	ArrivalLocation   string
	ArrivalDate       string
	ArrivalHour       string
	Seats             int
	Price             float64
	DurationMinutes   *int
}

type Service interface {
	Create(ctx context.Context, driverID string, in CreateInput) (*Trip, error)
	GetByID(ctx context.Context, id string) (*Trip, error)
}

// ChangeListener is told after a committed write that can change which trips are bookable
// or their seat counts. Listeners must not fail the write.
type ChangeListener interface {
	TripsChanged(ctx context.Context)
}

// NotifyChanged calls l unless it is nil. The call outlives cancellation of ctx
// because the write it reports is already committed.
func NotifyChanged(ctx context.Context, l ChangeListener) {
	if l != nil {
		l.TripsChanged(context.WithoutCancel(ctx))
	}
}

type service struct {
	repo     Repository
	listener ChangeListener
	log      logrus.FieldLogger
}

// NewService builds the trip service. listener may be nil.
func NewService(repo Repository, listener ChangeListener, log logrus.FieldLogger) Service {
	return &service{
		repo:     repo,
		listener: listener,
		log:      log.WithField("component", "trip"),
	}
}

func (s *service) Create(ctx context.Context, driverID string, in CreateInput) (*Trip, error) {
	depDate, err := time.Parse("2006-01-02", in.DepartureDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	arrDate, err := time.Parse("2006-01-02", in.ArrivalDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if _, err := ParseHour(in.DepartureHour); err != nil {
		return nil, err
	}
	if _, err := ParseHour(in.ArrivalHour); err != nil {
		return nil, err
	}
	if in.Seats < 1 {
		return nil, ErrInvalidSeats
	}
	if in.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if in.DurationMinutes != nil && *in.DurationMinutes < 0 {
		return nil, ErrInvalidDuration
	}

	t := &Trip{
		ID:                uuid.NewString(),
		DriverID:          driverID,
		DepartureCity:     strings.TrimSpace(in.DepartureCity),
		DepartureLocation: strings.TrimSpace(in.DepartureLocation),
		DepartureDate:     depDate,
		DepartureHour:     in.DepartureHour,
		ArrivalCity:       strings.TrimSpace(in.ArrivalCity),
		ArrivalLocation:   strings.TrimSpace(in.ArrivalLocation),
		ArrivalDate:       arrDate,
		ArrivalHour:       in.ArrivalHour,
		Status:            StatusAvailable,
		SeatsAvailable:    in.Seats,
		Price:             in.Price,
		DurationMinutes:   in.DurationMinutes,
	}
	if t.ArrivalAt().Before(t.DepartureAt()) {
		return nil, ErrInvalidSchedule
	}

	if in.CarID != nil {
		car, err := s.repo.GetCar(ctx, *in.CarID)
		if err != nil {
			return nil, err
		}
		if car.OwnerID != driverID {
			return nil, ErrCarNotOwned
		}
		t.CarID = &car.ID
		t.Car = car
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	NotifyChanged(ctx, s.listener)

	s.log.WithFields(logrus.Fields{
		"trip_id":   t.ID,
		"driver_id": driverID,
		"seats":     t.SeatsAvailable,
	}).Info("trip published")
	return t, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Trip, error) {
	return s.repo.GetByID(ctx, id)
}
