package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// slotsForDay returns the template slots configured for one weekday, or nil
// when the day has no entry.
func slotsForDay(template []AvailabilityDay, day Weekday) []TimeOfDay {
	for _, entry := range template {
		if entry.Day == day {
			return entry.Slots
		}
	}
	return nil
}

// subtractBooked is the core set-difference: template slots minus claimed
// times, deduplicated and sorted ascending. Duplicate claims for the same
// slot subtract once.
func subtractBooked(template, booked []TimeOfDay) []TimeOfDay {
	claimed := make(map[TimeOfDay]struct{}, len(booked))
	for _, t := range booked {
		claimed[t] = struct{}{}
	}

	free := make([]TimeOfDay, 0, len(template))
	seen := make(map[TimeOfDay]struct{}, len(template))
	for _, t := range template {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, taken := claimed[t]; !taken {
			free = append(free, t)
		}
	}
	sortSlots(free)
	return free
}

// Resolve computes the free catalogue slots for one doctor on one date:
// the weekday template minus the times already claimed by non-cancelled
// appointments on that exact date. An unknown doctor or a doctor with no
// template entry for that weekday resolves to an empty set, not an error.
// Past dates are not rejected here; that policy belongs to callers.
func (s *Service) Resolve(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]TimeOfDay, error) {
	template, err := s.repo.GetAvailability(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return []TimeOfDay{}, nil
		}
		return nil, fmt.Errorf("load availability template: %w", err)
	}

	candidates := slotsForDay(template, WeekdayOf(date))
	if len(candidates) == 0 {
		return []TimeOfDay{}, nil
	}

	booked, err := s.repo.ListBookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked times: %w", err)
	}

	return subtractBooked(candidates, booked), nil
}

// ResolveMany fans Resolve out across a doctor set for one date. No
// cross-doctor exclusivity is assumed: the same slot may appear under
// several doctors, and the caller disambiguates by doctor when booking.
// Doctors are returned in input order; doctors that cannot be loaded are
// skipped rather than failing the whole aggregation.
func (s *Service) ResolveMany(ctx context.Context, doctorIDs []uuid.UUID, date time.Time) ([]DoctorSlots, error) {
	results := make([]DoctorSlots, 0, len(doctorIDs))
	for _, id := range doctorIDs {
		doctor, err := s.repo.GetDoctorByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrDoctorNotFound) {
				continue
			}
			return nil, fmt.Errorf("load doctor %s: %w", id, err)
		}

		slots, err := s.Resolve(ctx, id, date)
		if err != nil {
			return nil, err
		}

		results = append(results, DoctorSlots{
			DoctorID:   doctor.ID,
			DoctorName: doctor.Name,
			Slots:      slots,
		})
	}
	return results, nil
}

// ResolveAll is ResolveMany over every registered doctor, used by the
// available-times view when no doctor filter is given.
func (s *Service) ResolveAll(ctx context.Context, date time.Time) ([]DoctorSlots, error) {
	doctors, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	ids := make([]uuid.UUID, len(doctors))
	for i, d := range doctors {
		ids[i] = d.ID
	}
	return s.ResolveMany(ctx, ids, date)
}

// ResolveRange walks every calendar date in [start, end] inclusive for one
// doctor. A date appears in AvailableDays when its weekday has a non-empty
// template entry, even when every slot on it is already booked; dates with
// no template coverage are omitted entirely. BookedSlots carries the claimed
// times only for dates that have any. Calendar views depend on keeping the
// fully-booked/no-coverage distinction.
func (s *Service) ResolveRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (*RangeAvailability, error) {
	if end.Before(start) {
		return nil, ErrInvalidDate
	}

	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	template, err := s.repo.GetAvailability(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load availability template: %w", err)
	}

	bookedDays, err := s.repo.ListBookedTimesRange(ctx, doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load booked times: %w", err)
	}
	bookedByDate := make(map[string][]TimeOfDay, len(bookedDays))
	for _, bd := range bookedDays {
		bookedByDate[bd.Date] = bd.BookedTimes
	}

	result := &RangeAvailability{
		DoctorID:      doctor.ID,
		DoctorName:    doctor.Name,
		AvailableDays: []string{},
		BookedSlots:   []BookedDay{},
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if len(slotsForDay(template, WeekdayOf(d))) == 0 {
			continue
		}
		dateKey := FormatDate(d)
		result.AvailableDays = append(result.AvailableDays, dateKey)
		if times := bookedByDate[dateKey]; len(times) > 0 {
			result.BookedSlots = append(result.BookedSlots, BookedDay{
				Date:        dateKey,
				BookedTimes: times,
			})
		}
	}

	return result, nil
}
