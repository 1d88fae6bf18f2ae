package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository. CreateAppointment enforces the same
// partial-uniqueness rule as the Postgres index so race tests exercise the
// real write-time guard.
type fakeRepo struct {
	mu            sync.Mutex
	patients      map[uuid.UUID]*Patient
	doctors       map[uuid.UUID]*Doctor
	templates     map[uuid.UUID][]AvailabilityDay
	appointments  map[uuid.UUID]*Appointment
	notifications []Notification

	failCreate    error // next CreateAppointment fails with this
	failReinstate bool  // reject UpdateAppointmentStatus from cancelled
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		patients:     make(map[uuid.UUID]*Patient),
		doctors:      make(map[uuid.UUID]*Doctor),
		templates:    make(map[uuid.UUID][]AvailabilityDay),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (f *fakeRepo) addPatient(name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.patients[id] = &Patient{ID: id, Name: name}
	return id
}

func (f *fakeRepo) addDoctor(name, specialty string, template []AvailabilityDay) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.doctors[id] = &Doctor{ID: id, Name: name, Specialty: specialty}
	f.templates[id] = template
	return id
}

func (f *fakeRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepo) ListDoctors(_ context.Context) ([]Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Doctor, 0, len(f.doctors))
	for _, d := range f.doctors {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeRepo) GetAvailability(_ context.Context, doctorID uuid.UUID) ([]AvailabilityDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.doctors[doctorID]; !ok {
		return nil, ErrDoctorNotFound
	}
	return append([]AvailabilityDay(nil), f.templates[doctorID]...), nil
}

func (f *fakeRepo) ReplaceAvailability(_ context.Context, doctorID uuid.UUID, entries []AvailabilityDay) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates[doctorID] = append([]AvailabilityDay(nil), entries...)
	return nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (f *fakeRepo) ListBookedTimes(_ context.Context, doctorID uuid.UUID, date time.Time) ([]TimeOfDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []TimeOfDay
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && sameDate(a.Date, date) && a.Status != StatusCancelled {
			out = append(out, a.Time)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListBookedTimesRange(_ context.Context, doctorID uuid.UUID, start, end time.Time) ([]BookedDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byDate := make(map[string][]TimeOfDay)
	for _, a := range f.appointments {
		if a.DoctorID != doctorID || a.Status == StatusCancelled {
			continue
		}
		if a.Date.Before(start) || a.Date.After(end) {
			continue
		}
		key := FormatDate(a.Date)
		byDate[key] = append(byDate[key], a.Time)
	}
	out := make([]BookedDay, 0, len(byDate))
	for date, times := range byDate {
		sortSlots(times)
		out = append(out, BookedDay{Date: date, BookedTimes: times})
	}
	return out, nil
}

func (f *fakeRepo) ListBookedTimesByDate(_ context.Context, date time.Time) (map[uuid.UUID][]TimeOfDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID][]TimeOfDay)
	for _, a := range f.appointments {
		if sameDate(a.Date, date) && a.Status != StatusCancelled {
			out[a.DoctorID] = append(out[a.DoctorID], a.Time)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAppointment(_ context.Context, appt Appointment) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		err := f.failCreate
		f.failCreate = nil
		return nil, err
	}
	for _, existing := range f.appointments {
		if existing.DoctorID == appt.DoctorID &&
			sameDate(existing.Date, appt.Date) &&
			existing.Time == appt.Time &&
			existing.Status != StatusCancelled {
			return nil, ErrSlotTaken
		}
	}
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	cp := appt
	f.appointments[appt.ID] = &cp
	out := appt
	return &out, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	if f.failReinstate && from == StatusCancelled {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeRepo) detailLocked(a *Appointment) *AppointmentDetail {
	detail := &AppointmentDetail{Appointment: *a}
	if d, ok := f.doctors[a.DoctorID]; ok {
		detail.DoctorName = d.Name
	}
	if p, ok := f.patients[a.PatientID]; ok {
		detail.PatientName = p.Name
	}
	return detail
}

func (f *fakeRepo) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return f.detailLocked(a), nil
}

func (f *fakeRepo) ListAppointments(_ context.Context, filter AppointmentFilter) ([]AppointmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []AppointmentDetail
	for _, a := range f.appointments {
		if filter.PatientID != uuid.Nil && a.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != uuid.Nil && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Date != nil && !sameDate(a.Date, *filter.Date) {
			continue
		}
		out = append(out, *f.detailLocked(a))
	}
	return out, nil
}

func (f *fakeRepo) InsertNotification(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.CreatedAt = time.Now()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeRepo) ListNotificationsByUser(_ context.Context, userID uuid.UUID) ([]Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Notification
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpcomingAppointmentsWithoutReminder(_ context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reminded := make(map[uuid.UUID]bool)
	for _, n := range f.notifications {
		if n.Type == NotificationReminder && n.AppointmentID != nil {
			reminded[*n.AppointmentID] = true
		}
	}

	var out []AppointmentDetail
	for _, a := range f.appointments {
		switch a.Status {
		case StatusScheduled, StatusPending, StatusConfirmed:
		default:
			continue
		}
		if reminded[a.ID] {
			continue
		}
		startsAt, err := time.Parse("2006-01-02 15:04", FormatDate(a.Date)+" "+string(a.Time))
		if err != nil {
			continue
		}
		if startsAt.Before(from) || !startsAt.Before(to) {
			continue
		}
		out = append(out, *f.detailLocked(a))
	}
	return out, nil
}
