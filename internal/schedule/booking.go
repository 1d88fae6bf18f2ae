package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

// BookingRequest is the Booking Writer input. Time accepts either the
// canonical 24-hour form or a 12-hour display form; it is normalized before
// any comparison or storage.
type BookingRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	Time      string
	Symptoms  []string
	Notes     string
}

func slotLockKey(doctorID uuid.UUID, date time.Time, t TimeOfDay) string {
	return fmt.Sprintf("%s:%s:%s", doctorID, FormatDate(date), t)
}

// Book validates a requested slot against the current ledger state and
// commits the appointment. The free-slot check runs inside a distributed
// lock on the (doctor, date, time) key, and the ledger's partial unique
// index backstops the same invariant at write time, so two concurrent
// bookings for one key cannot both succeed.
func (s *Service) Book(ctx context.Context, principal Principal, req BookingRequest) (*AppointmentDetail, error) {
	// A patient may only book for themselves; doctors may book on a
	// patient's behalf (front desk flow).
	if principal.Role == RolePatient && principal.UserID != req.PatientID {
		return nil, ErrNotAuthorized
	}

	slot, err := NormalizeTime(req.Time)
	if err != nil {
		return nil, err
	}

	patient, err := s.repo.GetPatientByID(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slotLockKey(req.DoctorID, req.Date, slot), func(lockCtx context.Context) error {
		// Re-resolve inside the critical section; the client's earlier
		// availability read may be stale.
		free, err := s.Resolve(lockCtx, req.DoctorID, req.Date)
		if err != nil {
			return err
		}
		if !containsSlot(free, slot) {
			return ErrSlotUnavailable
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:        uuid.New(),
			DoctorID:  req.DoctorID,
			PatientID: req.PatientID,
			Date:      req.Date,
			Time:      slot,
			Status:    StatusScheduled,
			Symptoms:  req.Symptoms,
			Notes:     req.Notes,
		})
		if err != nil {
			if errors.Is(err, ErrSlotTaken) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.notify(ctx, patient.ID, NotificationAppointment, created.ID,
		fmt.Sprintf("Appointment booked with %s on %s at %s", doctor.Name, FormatDate(created.Date), created.Time))

	return &AppointmentDetail{
		Appointment: *created,
		DoctorName:  doctor.Name,
		PatientName: patient.Name,
	}, nil
}

var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled: {StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func transitionAllowed(from, to AppointmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves an appointment through its lifecycle with a
// compare-and-swap on the current status. Cancelling releases the slot:
// the resolver excludes only non-cancelled appointments, so the time
// becomes bookable again immediately.
func (s *Service) UpdateStatus(ctx context.Context, principal Principal, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := authorizeParty(principal, appt); err != nil {
		return nil, err
	}
	// Confirmation and completion are doctor-side actions.
	if (to == StatusConfirmed || to == StatusCompleted) && principal.Role != RoleDoctor {
		return nil, ErrNotAuthorized
	}

	if !transitionAllowed(appt.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status changed underneath us between read and CAS.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	if to == StatusCancelled {
		s.notify(ctx, appt.PatientID, NotificationAppointment, appt.ID,
			fmt.Sprintf("Appointment on %s at %s was cancelled", FormatDate(appt.Date), appt.Time))
	}

	return updated, nil
}

// Cancel is the status-based cancellation path. Cancelled appointments are
// never hard-deleted; the row stays for history and the slot frees up.
func (s *Service) Cancel(ctx context.Context, principal Principal, id uuid.UUID) (*Appointment, error) {
	return s.UpdateStatus(ctx, principal, id, StatusCancelled)
}

// Reschedule moves an appointment to a new slot as a single intent. The
// underlying mechanics are cancel-old then book-new; if the new booking
// fails the original is reinstated, and if that compensation also fails the
// caller receives ErrRescheduleFailed so the UI can direct the user to
// rebook rather than report a generic error.
func (s *Service) Reschedule(ctx context.Context, principal Principal, id uuid.UUID, newDate time.Time, newTime string) (*AppointmentDetail, error) {
	old, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if err := authorizeParty(principal, old); err != nil {
		return nil, err
	}
	if old.Status == StatusCancelled || old.Status == StatusCompleted {
		return nil, ErrInvalidStatusTransition
	}

	slot, err := NormalizeTime(newTime)
	if err != nil {
		return nil, err
	}

	var moved *AppointmentDetail

	err = s.locker.WithSlotLock(ctx, slotLockKey(old.DoctorID, newDate, slot), func(lockCtx context.Context) error {
		free, err := s.Resolve(lockCtx, old.DoctorID, newDate)
		if err != nil {
			return err
		}
		// Moving within the same day to the currently held slot is a no-op
		// rejection, same as any other occupied slot.
		if !containsSlot(free, slot) {
			return ErrSlotUnavailable
		}

		priorStatus := old.Status
		if _, err := s.repo.UpdateAppointmentStatus(lockCtx, old.ID, priorStatus, StatusCancelled); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrInvalidStatusTransition
			}
			return fmt.Errorf("cancel original appointment: %w", err)
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:        uuid.New(),
			DoctorID:  old.DoctorID,
			PatientID: old.PatientID,
			Date:      newDate,
			Time:      slot,
			Status:    priorStatus,
			Symptoms:  old.Symptoms,
			Notes:     old.Notes,
		})
		if err != nil {
			return s.compensateReschedule(lockCtx, old.ID, priorStatus, err)
		}

		detail, err := s.repo.GetAppointmentDetail(lockCtx, appt.ID)
		if err != nil {
			// The move itself committed; fall back to the bare record.
			s.log.Warn("hydrate rescheduled appointment failed",
				zap.String("appointment_id", appt.ID.String()), zap.Error(err))
			detail = &AppointmentDetail{Appointment: *appt}
		}
		moved = detail
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.notify(ctx, moved.PatientID, NotificationAppointment, moved.ID,
		fmt.Sprintf("Appointment moved to %s at %s", FormatDate(moved.Date), moved.Time))

	return moved, nil
}

// compensateReschedule reinstates the cancelled original after a failed
// rebooking. bookErr is the failure that triggered compensation.
func (s *Service) compensateReschedule(ctx context.Context, oldID uuid.UUID, priorStatus AppointmentStatus, bookErr error) error {
	if _, err := s.repo.UpdateAppointmentStatus(ctx, oldID, StatusCancelled, priorStatus); err != nil {
		s.log.Error("reschedule compensation failed, appointment lost",
			zap.String("appointment_id", oldID.String()),
			zap.NamedError("book_error", bookErr),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrRescheduleFailed, bookErr)
	}
	if errors.Is(bookErr, ErrSlotTaken) {
		return ErrSlotUnavailable
	}
	return fmt.Errorf("book replacement appointment: %w", bookErr)
}

func authorizeParty(principal Principal, appt *Appointment) error {
	switch principal.Role {
	case RolePatient:
		if principal.UserID != appt.PatientID {
			return ErrNotAuthorized
		}
	case RoleDoctor:
		if principal.UserID != appt.DoctorID {
			return ErrNotAuthorized
		}
	default:
		return ErrNotAuthorized
	}
	return nil
}

func containsSlot(slots []TimeOfDay, t TimeOfDay) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

// notify records a notification row best-effort; a failure is logged, never
// surfaced, since the booking itself has already committed.
func (s *Service) notify(ctx context.Context, userID uuid.UUID, kind NotificationType, apptID uuid.UUID, message string) {
	id := apptID
	n := Notification{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          kind,
		Message:       message,
		AppointmentID: &id,
	}
	if err := s.repo.InsertNotification(ctx, n); err != nil {
		s.log.Warn("insert notification failed",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
}
