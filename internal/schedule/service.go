package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

var (
	ErrSlotUnavailable = errors.New("requested slot is not available")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
	ErrNotAuthorized   = errors.New("not authorized for this operation")

	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrRescheduleFailed means the original appointment was cancelled but
	// the replacement booking failed and the original could not be
	// reinstated. The caller holds neither slot and must rebook.
	ErrRescheduleFailed = errors.New("reschedule failed after cancelling the original appointment")
)

// Predictor is the opaque symptom classifier. It returns a comma-separated
// specialty recommendation; the core never looks inside the model.
type Predictor interface {
	Predict(ctx context.Context, symptoms []string) (*Prediction, error)
}

// Prediction is the classifier response consumed by doctor matching.
type Prediction struct {
	Disease              string               `json:"disease,omitempty"`
	DoctorRecommendation DoctorRecommendation `json:"doctor_recommendation"`
}

type DoctorRecommendation struct {
	Specialist string `json:"specialist"`
}

type Service struct {
	repo      Repository
	locker    redisclient.Locker
	predictor Predictor
	log       *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, predictor Predictor, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		locker:    locker,
		predictor: predictor,
		log:       log,
	}
}

// GetAppointment retrieves a fully hydrated appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

// ListAppointments returns appointments matching the filter, hydrated with
// doctor and patient names, sorted by date ascending.
func (s *Service) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]AppointmentDetail, error) {
	appointments, err := s.repo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

// ListDoctors returns all registered doctors.
func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// GetDoctor returns a doctor together with their weekly template.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, []AvailabilityDay, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get doctor: %w", err)
	}
	availability, err := s.repo.GetAvailability(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get doctor availability: %w", err)
	}
	return doctor, availability, nil
}

// ListNotifications returns the principal's notification feed.
func (s *Service) ListNotifications(ctx context.Context, principal Principal) ([]Notification, error) {
	notifications, err := s.repo.ListNotificationsByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}
