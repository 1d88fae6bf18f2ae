package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/schedule"
)

// availableTimesHandler serves the slot-picker view: free catalogue slots
// on one date, for one doctor or for all of them.
func availableTimesHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDateParam(r, "date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date is required as YYYY-MM-DD")
			return
		}

		var results []schedule.DoctorSlots
		if raw := r.URL.Query().Get("doctor_id"); raw != "" {
			doctorID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			results, err = svc.ResolveMany(r.Context(), []uuid.UUID{doctorID}, date)
			if err != nil {
				handleScheduleError(w, err)
				return
			}
		} else {
			results, err = svc.ResolveAll(r.Context(), date)
			if err != nil {
				handleScheduleError(w, err)
				return
			}
		}

		writeJSON(w, http.StatusOK, doctorSlotsResponse(results))
	}
}

// doctorAvailabilityRangeHandler serves the calendar-month view for one
// doctor over [start_date, end_date].
func doctorAvailabilityRangeHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		start, err := parseDateParam(r, "start_date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "start_date is required as YYYY-MM-DD")
			return
		}
		end, err := parseDateParam(r, "end_date")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "end_date is required as YYYY-MM-DD")
			return
		}

		rng, err := svc.ResolveRange(r.Context(), doctorID, start, end)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		booked := make([]BookedDayResponse, 0, len(rng.BookedSlots))
		for _, bd := range rng.BookedSlots {
			times := make([]string, len(bd.BookedTimes))
			for i, t := range bd.BookedTimes {
				times[i] = string(t)
			}
			booked = append(booked, BookedDayResponse{Date: bd.Date, BookedTimes: times})
		}

		writeJSON(w, http.StatusOK, RangeAvailabilityResponse{
			DoctorID:      rng.DoctorID,
			DoctorName:    rng.DoctorName,
			AvailableDays: rng.AvailableDays,
			BookedSlots:   booked,
		})
	}
}

// setAvailabilityHandler replaces the calling doctor's whole weekly
// template. Entries may carry explicit timeSlots or the legacy
// startTime/endTime range, which is expanded to catalogue ticks.
func setAvailabilityHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalOr401(w, r)
		if !ok {
			return
		}

		var req SetAvailabilityRequest
		if !decodeValid(w, r, &req) {
			return
		}

		entries := make([]schedule.TemplateEntry, 0, len(req.Availability))
		for _, e := range req.Availability {
			entries = append(entries, schedule.TemplateEntry{
				Day:       e.Day,
				Slots:     e.TimeSlots,
				StartTime: e.StartTime,
				EndTime:   e.EndTime,
			})
		}

		template, err := svc.SetAvailability(r.Context(), principal, entries)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, availabilityEntries(template))
	}
}

func listDoctorsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		out := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			out = append(out, DoctorResponse{
				ID:        d.ID,
				Name:      d.Name,
				Email:     d.Email,
				Specialty: d.Specialty,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getDoctorHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		doctor, availability, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, DoctorResponse{
			ID:           doctor.ID,
			Name:         doctor.Name,
			Email:        doctor.Email,
			Specialty:    doctor.Specialty,
			Availability: availabilityEntries(availability),
		})
	}
}

func matchDoctorsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principalOr401(w, r); !ok {
			return
		}

		var req MatchDoctorsRequest
		if !decodeValid(w, r, &req) {
			return
		}
		date, err := schedule.ParseDate(req.PreferredDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "preferredDate must be YYYY-MM-DD")
			return
		}

		result, err := svc.Match(r.Context(), schedule.MatchRequest{
			PreferredDate:  date,
			PreferredTimes: req.PreferredTimes,
			Symptoms:       req.Symptoms,
		})
		if err != nil {
			handleScheduleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, MatchDoctorsResponse{
			DiseasePrediction: result.Prediction,
			Doctors:           doctorSlotsResponse(result.Doctors),
		})
	}
}

func availabilityEntries(template []schedule.AvailabilityDay) []AvailabilityEntry {
	out := make([]AvailabilityEntry, 0, len(template))
	for _, day := range template {
		slots := make([]string, len(day.Slots))
		for i, t := range day.Slots {
			slots[i] = string(t)
		}
		out = append(out, AvailabilityEntry{Day: string(day.Day), TimeSlots: slots})
	}
	return out
}
