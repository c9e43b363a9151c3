package models

import "time"

type BookingResult struct {
	Request *ServiceRequest `json:"request"`
	Job     *Job            `json:"job"`
	Invoice *Invoice        `json:"invoice"`
}

type CustomerDashboard struct {
	ActiveBookings  int           `json:"active_bookings"`
	CompletedCount  int64         `json:"completed_services"`
	AverageRating   float64       `json:"average_rating"`
	NextAppointment *time.Time    `json:"next_appointment"`
	CurrentBookings []*JobDetails `json:"current_bookings"`
}

type MechanicDashboard struct {
	OpenRequests      []*ServiceRequest `json:"open_requests"`
	OpenRequestCount  int64             `json:"open_request_count"`
	ActiveJobs        []*JobDetails     `json:"active_jobs"`
	CompletedCount    int64             `json:"completed_jobs"`
	AverageRating     float64           `json:"average_rating"`
	TodayAppointments int64             `json:"today_appointments"`
}
