package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/codriving-backend/internal/db"
	"github.com/nekogravitycat/codriving-backend/internal/trip"
	"github.com/nekogravitycat/codriving-backend/internal/user"
)

// UserStore is the part of the user repository the engine needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*user.User, error)
	UpdateCredits(ctx context.Context, id string, credits int) error
}

// TripStore is the part of the trip repository the engine needs.
type TripStore interface {
	GetByID(ctx context.Context, id string) (*trip.Trip, error)
	GetByIDForUpdate(ctx context.Context, id string) (*trip.Trip, error)
	UpdateSeats(ctx context.Context, id string, seats int) error
}

type CreateRequest struct {
	PassengerID string
	TripID      string
	CreditsUsed int
	Notes       *string
}

// UpdateRequest patches a booking. Nil fields are left untouched.
type UpdateRequest struct {
	Notes  *string
	Status *Status
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	// GetByID scopes the lookup to requesterID's bookings unless requesterID is empty.
	GetByID(ctx context.Context, id, requesterID string) (*Booking, error)
	ListForUser(ctx context.Context, passengerID string, filter Filter) ([]*Booking, int, error)
	ListByPassenger(ctx context.Context, passengerID string, filter Filter) ([]*Booking, int, error)
	ListByTrip(ctx context.Context, tripID, requesterID string, isSysAdmin bool, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, id string, req UpdateRequest, requesterID string) (*Booking, error)
	Cancel(ctx context.Context, id, requesterID string) (*Booking, error)
	Confirm(ctx context.Context, id, driverID string) (*Booking, error)
	Complete(ctx context.Context, id, driverID string) (*Booking, error)
	Delete(ctx context.Context, id string) error
}

// service is the only writer of user credits and trip seats.
// Every transition runs in one transaction and locks rows in the order booking, user, trip.
type service struct {
	repo  Repository
	users UserStore
	trips TripStore
	tx    db.Transactor

	// listener hears about committed seat changes. It may be nil.
	listener trip.ChangeListener
	log      logrus.FieldLogger
	newID    func() string
}

func NewService(repo Repository, users UserStore, trips TripStore, tx db.Transactor, listener trip.ChangeListener, log logrus.FieldLogger) Service {
	return &service{
		repo:     repo,
		users:    users,
		trips:    trips,
		tx:       tx,
		listener: listener,
		log:      log.WithField("component", "booking"),
		newID:    uuid.NewString,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if req.CreditsUsed < 1 {
		return nil, ErrInvalidCredits
	}

	var created *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.lockUser(ctx, req.PassengerID)
		if err != nil {
			return err
		}
		if u.Credits < req.CreditsUsed {
			return ErrInsufficientCredits
		}

		t, err := s.lockTrip(ctx, req.TripID)
		if err != nil {
			return err
		}
		if t.SeatsAvailable <= 0 {
			return ErrNoSeatsAvailable
		}

		active, err := s.repo.HasActive(ctx, u.ID, t.ID)
		if err != nil {
			return err
		}
		if active {
			return ErrAlreadyBooked
		}

		// All checks passed; counters are touched last.
		b := &Booking{
			ID:          s.newID(),
			PassengerID: u.ID,
			TripID:      t.ID,
			Status:      StatusPending,
			CreditsUsed: req.CreditsUsed,
			Notes:       req.Notes,
		}
		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}
		if err := s.users.UpdateCredits(ctx, u.ID, u.Credits-req.CreditsUsed); err != nil {
			return fmt.Errorf("debit credits: %w", err)
		}
		if err := s.trips.UpdateSeats(ctx, t.ID, t.SeatsAvailable-1); err != nil {
			return fmt.Errorf("reserve seat: %w", err)
		}

		b.PassengerName = u.Name()
		b.DepartureCity = t.DepartureCity
		b.ArrivalCity = t.ArrivalCity
		b.DepartureAt = t.DepartureAt()
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	trip.NotifyChanged(ctx, s.listener)
	s.entry(created).WithField("credits_used", created.CreditsUsed).Info("booking created")
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id, requesterID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !owns(b, requesterID) {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) ListForUser(ctx context.Context, passengerID string, filter Filter) ([]*Booking, int, error) {
	filter.PassengerID = passengerID
	filter.TripID = ""
	return s.repo.List(ctx, filter)
}

func (s *service) ListByPassenger(ctx context.Context, passengerID string, filter Filter) ([]*Booking, int, error) {
	if _, err := s.users.GetByID(ctx, passengerID); err != nil {
		return nil, 0, mapUserErr(err)
	}
	filter.PassengerID = passengerID
	filter.TripID = ""
	return s.repo.List(ctx, filter)
}

// ListByTrip is open to the trip's driver and to system admins.
func (s *service) ListByTrip(ctx context.Context, tripID, requesterID string, isSysAdmin bool, filter Filter) ([]*Booking, int, error) {
	t, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, 0, mapTripErr(err)
	}
	if !isSysAdmin && t.DriverID != requesterID {
		return nil, 0, ErrPermissionDenied
	}
	filter.TripID = tripID
	filter.PassengerID = ""
	return s.repo.List(ctx, filter)
}

// Update patches notes directly. A status of cancelled is applied with full
// cancellation semantics; every other status change must use Confirm or Complete.
func (s *service) Update(ctx context.Context, id string, req UpdateRequest, requesterID string) (*Booking, error) {
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *req.Status != StatusCancelled {
			return nil, ErrStatusChangeNotAllowed
		}
	}

	var updated *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !owns(b, requesterID) {
			return ErrNotFound
		}

		if req.Status != nil {
			if err := s.cancelLocked(ctx, b); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			updatedAt, err := s.repo.UpdateNotes(ctx, b.ID, req.Notes)
			if err != nil {
				return err
			}
			b.Notes = req.Notes
			b.UpdatedAt = updatedAt
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		trip.NotifyChanged(ctx, s.listener)
	}
	s.entry(updated).Info("booking updated")
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, id, requesterID string) (*Booking, error) {
	var cancelled *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !owns(b, requesterID) {
			return ErrNotFound
		}
		if err := s.cancelLocked(ctx, b); err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	trip.NotifyChanged(ctx, s.listener)
	s.entry(cancelled).WithField("refunded", cancelled.CreditsUsed).Info("booking cancelled")
	return cancelled, nil
}

// cancelLocked moves a locked booking to cancelled, refunds the passenger and releases the seat.
// The terminal cancelled status guarantees the refund happens once.
func (s *service) cancelLocked(ctx context.Context, b *Booking) error {
	switch b.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrNotCancellable
	}

	u, err := s.lockUser(ctx, b.PassengerID)
	if err != nil {
		return err
	}
	t, err := s.lockTrip(ctx, b.TripID)
	if err != nil {
		return err
	}

	updatedAt, err := s.repo.UpdateStatus(ctx, b.ID, StatusCancelled)
	if err != nil {
		return err
	}
	if err := s.users.UpdateCredits(ctx, u.ID, u.Credits+b.CreditsUsed); err != nil {
		return fmt.Errorf("refund credits: %w", err)
	}
	if err := s.trips.UpdateSeats(ctx, t.ID, t.SeatsAvailable+1); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}

	b.Status = StatusCancelled
	b.UpdatedAt = updatedAt
	return nil
}

func (s *service) Confirm(ctx context.Context, id, driverID string) (*Booking, error) {
	b, err := s.driverTransition(ctx, id, driverID, StatusConfirmed, ErrOnlyDriverCanConfirm, ErrNotPending)
	if err != nil {
		return nil, err
	}
	s.entry(b).WithField("driver_id", driverID).Info("booking confirmed")
	return b, nil
}

func (s *service) Complete(ctx context.Context, id, driverID string) (*Booking, error) {
	b, err := s.driverTransition(ctx, id, driverID, StatusCompleted, ErrOnlyDriverCanComplete, ErrNotConfirmed)
	if err != nil {
		return nil, err
	}
	s.entry(b).WithField("driver_id", driverID).Info("booking completed")
	return b, nil
}

// driverTransition applies a status change reserved to the trip's driver.
// It has no effect on credits or seats.
func (s *service) driverTransition(ctx context.Context, id, driverID string, next Status, errNotDriver, errWrongState error) (*Booking, error) {
	var out *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		t, err := s.trips.GetByID(ctx, b.TripID)
		if err != nil {
			return mapTripErr(err)
		}
		if t.DriverID != driverID {
			return errNotDriver
		}
		if !b.Status.CanTransitionTo(next) {
			return errWrongState
		}

		updatedAt, err := s.repo.UpdateStatus(ctx, b.ID, next)
		if err != nil {
			return err
		}
		b.Status = next
		b.UpdatedAt = updatedAt
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a booking. An active booking is cancelled first so its credits and seat come back.
func (s *service) Delete(ctx context.Context, id string) error {
	var deleted *Booking
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b.Status.IsActive() {
			if err := s.cancelLocked(ctx, b); err != nil {
				return err
			}
		}
		if err := s.repo.Delete(ctx, b.ID); err != nil {
			return err
		}
		deleted = b
		return nil
	})
	if err != nil {
		return err
	}

	trip.NotifyChanged(ctx, s.listener)
	s.entry(deleted).Info("booking deleted")
	return nil
}

func (s *service) lockUser(ctx context.Context, id string) (*user.User, error) {
	u, err := s.users.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapUserErr(err)
	}
	return u, nil
}

func (s *service) lockTrip(ctx context.Context, id string) (*trip.Trip, error) {
	t, err := s.trips.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapTripErr(err)
	}
	return t, nil
}

func (s *service) entry(b *Booking) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"trip_id":    b.TripID,
		"user_id":    b.PassengerID,
		"status":     b.Status,
	})
}

func owns(b *Booking, requesterID string) bool {
	return requesterID == "" || b.PassengerID == requesterID
}

func mapUserErr(err error) error {
	if errors.Is(err, user.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func mapTripErr(err error) error {
	if errors.Is(err, trip.ErrNotFound) {
		return ErrTripNotFound
	}
	return err
}
