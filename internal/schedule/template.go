package schedule

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TemplateEntry is one submitted weekday of a template update. Either Slots
// or the legacy StartTime/EndTime range form may be used; the range form is
// expanded to catalogue ticks at this boundary so everything downstream
// operates on the discrete model.
type TemplateEntry struct {
	Day       string
	Slots     []string
	StartTime string
	EndTime   string
}

// SetAvailability replaces the calling doctor's entire weekly template.
// Partial-day merges are not supported: callers submit the full desired
// schedule each time. Only a doctor may write, and only their own template.
func (s *Service) SetAvailability(ctx context.Context, principal Principal, entries []TemplateEntry) ([]AvailabilityDay, error) {
	if principal.Role != RoleDoctor {
		return nil, ErrNotAuthorized
	}
	doctorID := principal.UserID

	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	template, err := buildTemplate(entries)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceAvailability(ctx, doctorID, template); err != nil {
		return nil, fmt.Errorf("replace availability: %w", err)
	}

	s.log.Info("availability template replaced",
		zap.String("doctor_id", doctorID.String()),
		zap.Int("days", len(template)))

	return template, nil
}

func buildTemplate(entries []TemplateEntry) ([]AvailabilityDay, error) {
	template := make([]AvailabilityDay, 0, len(entries))
	seenDays := make(map[Weekday]struct{}, len(entries))

	for _, entry := range entries {
		day, err := ParseWeekday(entry.Day)
		if err != nil {
			return nil, err
		}
		if _, dup := seenDays[day]; dup {
			return nil, fmt.Errorf("%w: duplicate entry for %s", ErrInvalidDay, day)
		}
		seenDays[day] = struct{}{}

		slots, err := entrySlots(entry)
		if err != nil {
			return nil, err
		}

		template = append(template, AvailabilityDay{Day: day, Slots: slots})
	}

	return template, nil
}

func entrySlots(entry TemplateEntry) ([]TimeOfDay, error) {
	if len(entry.Slots) == 0 && entry.StartTime != "" && entry.EndTime != "" {
		return ExpandRange(entry.StartTime, entry.EndTime)
	}

	slots := make([]TimeOfDay, 0, len(entry.Slots))
	seen := make(map[TimeOfDay]struct{}, len(entry.Slots))
	for _, raw := range entry.Slots {
		t, err := NormalizeTime(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSlot, raw)
		}
		if _, dup := seen[t]; dup {
			return nil, fmt.Errorf("%w: duplicate slot %s", ErrInvalidSlot, t)
		}
		seen[t] = struct{}{}
		slots = append(slots, t)
	}
	sortSlots(slots)
	return slots, nil
}
