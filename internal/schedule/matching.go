package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNoSymptoms = errors.New("at least one symptom is required")

// MatchRequest asks for doctors of a classifier-recommended specialty who
// are free for at least one of the preferred times on the preferred date.
type MatchRequest struct {
	PreferredDate  time.Time
	PreferredTimes []string
	Symptoms       []string
}

// MatchResult pairs the opaque classifier output with the doctors that
// satisfy both the specialty and the availability constraints.
type MatchResult struct {
	Prediction *Prediction
	Doctors    []DoctorSlots
}

// Match runs the symptom classifier, then filters the doctor set down to
// those whose specialty is recommended and who have at least one preferred
// time free on the preferred date. Each returned doctor carries the subset
// of preferred times actually free, so the client can offer them directly.
func (s *Service) Match(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	if len(req.Symptoms) == 0 {
		return nil, ErrNoSymptoms
	}

	preferred := make([]TimeOfDay, 0, len(req.PreferredTimes))
	for _, raw := range req.PreferredTimes {
		t, err := NormalizeTime(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSlot, raw)
		}
		preferred = append(preferred, t)
	}

	prediction, err := s.predictor.Predict(ctx, req.Symptoms)
	if err != nil {
		return nil, fmt.Errorf("symptom classifier: %w", err)
	}

	specialties := splitSpecialties(prediction.DoctorRecommendation.Specialist)
	if len(specialties) == 0 {
		return &MatchResult{Prediction: prediction, Doctors: []DoctorSlots{}}, nil
	}

	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	// One ledger read covers every doctor's bookings for the date.
	bookedByDoctor, err := s.repo.ListBookedTimesByDate(ctx, req.PreferredDate)
	if err != nil {
		return nil, fmt.Errorf("load booked times: %w", err)
	}

	day := WeekdayOf(req.PreferredDate)
	matched := []DoctorSlots{}

	for _, doctor := range doctors {
		if _, ok := specialties[doctor.Specialty]; !ok {
			continue
		}

		template, err := s.repo.GetAvailability(ctx, doctor.ID)
		if err != nil {
			s.log.Warn("skip doctor with unreadable template",
				zap.String("doctor_id", doctor.ID.String()), zap.Error(err))
			continue
		}

		open := subtractBooked(slotsForDay(template, day), bookedByDoctor[doctor.ID])
		free := intersectSlots(open, preferred)
		if len(free) == 0 {
			continue
		}

		matched = append(matched, DoctorSlots{
			DoctorID:   doctor.ID,
			DoctorName: doctor.Name,
			Slots:      free,
		})
	}

	return &MatchResult{Prediction: prediction, Doctors: matched}, nil
}

// splitSpecialties parses the classifier's comma-separated specialist
// string into a trimmed lookup set.
func splitSpecialties(raw string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out[part] = struct{}{}
		}
	}
	return out
}

func intersectSlots(open, wanted []TimeOfDay) []TimeOfDay {
	var out []TimeOfDay
	for _, t := range wanted {
		if containsSlot(open, t) && !containsSlot(out, t) {
			out = append(out, t)
		}
	}
	sortSlots(out)
	return out
}
