package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendDueReminders creates a reminder notification for every scheduled,
// pending or confirmed appointment starting within the window that does not
// already have one. Intended to be called by the reminder worker
// periodically; re-running it is safe because the repository query excludes
// appointments that were already reminded.
func (s *Service) SendDueReminders(ctx context.Context, window time.Duration) (int, error) {
	now := time.Now().UTC()
	due, err := s.repo.UpcomingAppointmentsWithoutReminder(ctx, now, now.Add(window))
	if err != nil {
		return 0, fmt.Errorf("find appointments due a reminder: %w", err)
	}

	sent := 0
	for _, appt := range due {
		id := appt.ID
		n := Notification{
			ID:            uuid.New(),
			UserID:        appt.PatientID,
			Type:          NotificationReminder,
			Message:       fmt.Sprintf("Reminder: appointment with %s on %s at %s", appt.DoctorName, FormatDate(appt.Date), appt.Time),
			AppointmentID: &id,
		}
		if err := s.repo.InsertNotification(ctx, n); err != nil {
			s.log.Error("insert reminder failed",
				zap.String("appointment_id", appt.ID.String()), zap.Error(err))
			continue
		}
		sent++
	}

	return sent, nil
}
