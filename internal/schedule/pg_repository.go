package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&email,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var email *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&email,
		&d.Specialty,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Email = email
	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Date,
		&a.Time,
		&a.Status,
		&a.Symptoms,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanAppointmentDetail(row pgx.Row) (*AppointmentDetail, error) {
	var a AppointmentDetail

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Date,
		&a.Time,
		&a.Status,
		&a.Symptoms,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.DoctorName,
		&a.PatientName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, specialty, created_at, updated_at
		FROM doctors
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetAvailability(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityDay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT day, slot_time
		FROM availability_slots
		WHERE doctor_id = $1
		ORDER BY day, slot_time
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDay := make(map[Weekday][]TimeOfDay)
	var order []Weekday
	for rows.Next() {
		var day Weekday
		var slot TimeOfDay
		if err := rows.Scan(&day, &slot); err != nil {
			return nil, err
		}
		if _, seen := byDay[day]; !seen {
			order = append(order, day)
		}
		byDay[day] = append(byDay[day], slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	template := make([]AvailabilityDay, 0, len(order))
	for _, day := range order {
		template = append(template, AvailabilityDay{Day: day, Slots: byDay[day]})
	}
	return template, nil
}

// ReplaceAvailability swaps the doctor's whole template in one transaction
// so readers never observe a half-written schedule.
func (r *PgRepository) ReplaceAvailability(ctx context.Context, doctorID uuid.UUID, entries []AvailabilityDay) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM availability_slots WHERE doctor_id = $1
	`, doctorID); err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}

	for _, entry := range entries {
		for _, slot := range entry.Slots {
			if _, err := tx.Exec(ctx, `
				INSERT INTO availability_slots (doctor_id, day, slot_time)
				VALUES ($1, $2, $3)
			`, doctorID, entry.Day, slot); err != nil {
				return fmt.Errorf("insert availability slot: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) ListBookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeOfDay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT slot_time
		FROM appointments
		WHERE doctor_id = $1
		  AND date = $2
		  AND status <> 'cancelled'
		ORDER BY slot_time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimeOfDay
	for rows.Next() {
		var t TimeOfDay
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListBookedTimesRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]BookedDay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date, slot_time
		FROM appointments
		WHERE doctor_id = $1
		  AND date BETWEEN $2 AND $3
		  AND status <> 'cancelled'
		ORDER BY date, slot_time
	`, doctorID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BookedDay
	for rows.Next() {
		var date time.Time
		var t TimeOfDay
		if err := rows.Scan(&date, &t); err != nil {
			return nil, err
		}
		key := FormatDate(date)
		if n := len(result); n > 0 && result[n-1].Date == key {
			result[n-1].BookedTimes = append(result[n-1].BookedTimes, t)
		} else {
			result = append(result, BookedDay{Date: key, BookedTimes: []TimeOfDay{t}})
		}
	}

	return result, rows.Err()
}

func (r *PgRepository) ListBookedTimesByDate(ctx context.Context, date time.Time) (map[uuid.UUID][]TimeOfDay, error) {
	rows, err := r.db.Query(ctx, `
		SELECT doctor_id, slot_time
		FROM appointments
		WHERE date = $1
		  AND status <> 'cancelled'
		ORDER BY doctor_id, slot_time
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]TimeOfDay)
	for rows.Next() {
		var doctorID uuid.UUID
		var t TimeOfDay
		if err := rows.Scan(&doctorID, &t); err != nil {
			return nil, err
		}
		result[doctorID] = append(result[doctorID], t)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, date, slot_time, status, symptoms, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, doctor_id, patient_id, date, slot_time, status, symptoms, notes, created_at, updated_at
	`, appt.ID, appt.DoctorID, appt.PatientID, appt.Date, appt.Time, appt.Status, appt.Symptoms, appt.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, doctor_id, patient_id, date, slot_time, status, symptoms, notes, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, date, slot_time, status, symptoms, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

const appointmentDetailColumns = `
	a.id, a.doctor_id, a.patient_id, a.date, a.slot_time, a.status,
	a.symptoms, a.notes, a.created_at, a.updated_at,
	d.name AS doctor_name, p.name AS patient_name`

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentDetailColumns+`
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.id = $1
	`, id)
	return scanAppointmentDetail(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]AppointmentDetail, error) {
	query := `
		SELECT ` + appointmentDetailColumns + `
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE 1=1`
	var args []any

	if filter.PatientID != uuid.Nil {
		args = append(args, filter.PatientID)
		query += fmt.Sprintf(" AND a.patient_id = $%d", len(args))
	}
	if filter.DoctorID != uuid.Nil {
		args = append(args, filter.DoctorID)
		query += fmt.Sprintf(" AND a.doctor_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += fmt.Sprintf(" AND a.date = $%d", len(args))
	}

	query += " ORDER BY a.date, a.slot_time"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		a, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) InsertNotification(ctx context.Context, n Notification) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, message, appointment_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, now())
	`, n.ID, n.UserID, n.Type, n.Message, n.AppointmentID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PgRepository) ListNotificationsByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, message, appointment_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY is_read, created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.AppointmentID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}

	return result, rows.Err()
}

func (r *PgRepository) UpcomingAppointmentsWithoutReminder(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentDetailColumns+`
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.status IN ('scheduled', 'pending', 'confirmed')
		  AND a.date + a.slot_time::time >= $1
		  AND a.date + a.slot_time::time < $2
		  AND NOT EXISTS (
			SELECT 1 FROM notifications n
			WHERE n.appointment_id = a.id AND n.type = 'reminder'
		  )
		ORDER BY a.date, a.slot_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		a, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}
