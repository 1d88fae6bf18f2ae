package schedule

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

var validStatuses = map[AppointmentStatus]struct{}{
	StatusScheduled: {}, StatusPending: {}, StatusConfirmed: {},
	StatusCompleted: {}, StatusCancelled: {},
}

// ParseStatus validates a status value from the wire.
func ParseStatus(raw string) (AppointmentStatus, bool) {
	s := AppointmentStatus(raw)
	_, ok := validStatuses[s]
	return s, ok
}

// Role of an authenticated principal, as asserted by the upstream gateway.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Principal is the authenticated identity every mutating operation receives
// explicitly. The core never reads ambient session state.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Specialty string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilityDay is one entry of a doctor's recurring weekly template:
// the catalogue slots the doctor opens on that weekday. A weekday with no
// entry is unavailable.
type AvailabilityDay struct {
	Day   Weekday
	Slots []TimeOfDay
}

type Appointment struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	Time      TimeOfDay
	Status    AppointmentStatus
	Symptoms  []string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentDetail carries the denormalized names clients render
// immediately after booking.
type AppointmentDetail struct {
	Appointment
	DoctorName  string
	PatientName string
}

// DoctorSlots is one aggregator result row: the free catalogue slots for a
// doctor on a specific date.
type DoctorSlots struct {
	DoctorID   uuid.UUID
	DoctorName string
	Slots      []TimeOfDay
}

// BookedDay lists the claimed times on one date inside a range query.
type BookedDay struct {
	Date        string
	BookedTimes []TimeOfDay
}

// RangeAvailability is the calendar-view result for one doctor over a date
// range. AvailableDays lists every date whose weekday has template coverage,
// including fully booked ones; BookedSlots has entries only for dates with
// at least one non-cancelled appointment.
type RangeAvailability struct {
	DoctorID      uuid.UUID
	DoctorName    string
	AvailableDays []string
	BookedSlots   []BookedDay
}

type NotificationType string

const (
	NotificationAppointment NotificationType = "appointment"
	NotificationReminder    NotificationType = "reminder"
	NotificationSystem      NotificationType = "system"
)

type Notification struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          NotificationType
	Message       string
	AppointmentID *uuid.UUID
	IsRead        bool
	CreatedAt     time.Time
}
