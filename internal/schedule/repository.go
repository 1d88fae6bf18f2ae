package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned by CreateAppointment when the ledger already
	// holds a non-cancelled appointment for the same (doctor, date, time)
	// key. The partial unique index makes this the write-time backstop
	// behind the distributed lock.
	ErrSlotTaken = errors.New("slot already booked")
)

// AppointmentFilter narrows ListAppointments. Zero values mean "no filter".
type AppointmentFilter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    AppointmentStatus
	Date      *time.Time
}

// Repository contains all ledger and template interactions needed by the
// service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)

	// Weekly availability template
	GetAvailability(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityDay, error)
	ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, entries []AvailabilityDay) error

	// Booked-time reads for the resolver
	ListBookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeOfDay, error)
	ListBookedTimesRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]BookedDay, error)
	ListBookedTimesByDate(ctx context.Context, date time.Time) (map[uuid.UUID][]TimeOfDay, error)

	// Ledger writes
	CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Ledger reads
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]AppointmentDetail, error)

	// Notifications
	InsertNotification(ctx context.Context, n Notification) error
	ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	UpcomingAppointmentsWithoutReminder(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error)
}
