package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-scheduling/internal/schedule"
)

type CreateAppointmentRequest struct {
	DoctorID  string   `json:"doctor_id" validate:"required,uuid4"`
	PatientID string   `json:"patient_id" validate:"required,uuid4"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string   `json:"time" validate:"required"`
	Symptoms  []string `json:"symptoms,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AvailabilityEntry struct {
	Day       string   `json:"day" validate:"required"`
	TimeSlots []string `json:"timeSlots,omitempty"`
	StartTime string   `json:"startTime,omitempty"`
	EndTime   string   `json:"endTime,omitempty"`
}

type SetAvailabilityRequest struct {
	Availability []AvailabilityEntry `json:"availability" validate:"required,dive"`
}

type MatchDoctorsRequest struct {
	PreferredDate  string   `json:"preferredDate" validate:"required,datetime=2006-01-02"`
	PreferredTimes []string `json:"preferredTimes" validate:"required,min=1"`
	Symptoms       []string `json:"symptoms" validate:"required,min=1"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	PatientName string    `json:"patient_name,omitempty"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      string    `json:"status"`
	Symptoms    []string  `json:"symptoms,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func appointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Date:      schedule.FormatDate(a.Date),
		Time:      string(a.Time),
		Status:    string(a.Status),
		Symptoms:  a.Symptoms,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
	}
}

func appointmentDetailResponse(a *schedule.AppointmentDetail) AppointmentResponse {
	resp := appointmentResponse(&a.Appointment)
	resp.DoctorName = a.DoctorName
	resp.PatientName = a.PatientName
	return resp
}

type DoctorSlotsResponse struct {
	DoctorID           uuid.UUID `json:"doctorId"`
	DoctorName         string    `json:"doctorName"`
	AvailableTimeSlots []string  `json:"availableTimeSlots"`
}

func doctorSlotsResponse(in []schedule.DoctorSlots) []DoctorSlotsResponse {
	out := make([]DoctorSlotsResponse, 0, len(in))
	for _, ds := range in {
		slots := make([]string, len(ds.Slots))
		for i, t := range ds.Slots {
			slots[i] = string(t)
		}
		out = append(out, DoctorSlotsResponse{
			DoctorID:           ds.DoctorID,
			DoctorName:         ds.DoctorName,
			AvailableTimeSlots: slots,
		})
	}
	return out
}

type BookedDayResponse struct {
	Date        string   `json:"date"`
	BookedTimes []string `json:"bookedTimes"`
}

type RangeAvailabilityResponse struct {
	DoctorID      uuid.UUID           `json:"doctorId"`
	DoctorName    string              `json:"doctorName"`
	AvailableDays []string            `json:"availableDays"`
	BookedSlots   []BookedDayResponse `json:"bookedSlots"`
}

type DoctorResponse struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Email        *string             `json:"email,omitempty"`
	Specialty    string              `json:"specialty"`
	Availability []AvailabilityEntry `json:"availability,omitempty"`
}

type MatchDoctorsResponse struct {
	DiseasePrediction *schedule.Prediction  `json:"diseasePrediction"`
	Doctors           []DoctorSlotsResponse `json:"doctors"`
}

type NotificationResponse struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Message       string     `json:"message"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	IsRead        bool       `json:"is_read"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
