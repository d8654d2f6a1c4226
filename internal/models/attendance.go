package models

import "time"

const AttendancePresent = "present"

// Attendance is one check-in record; check-out updates the same row.
type Attendance struct {
	ID           int        `db:"id" json:"id"`
	UserID       int        `db:"user_id" json:"userId"`
	CheckInTime  time.Time  `db:"check_in_time" json:"checkInTime"`
	CheckOutTime *time.Time `db:"check_out_time" json:"checkOutTime,omitempty"`
	Status       string     `db:"status" json:"status"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
}

// CheckInRequest is the body of POST /api/attendance.
type CheckInRequest struct {
	CheckInTime *time.Time `json:"checkInTime"`
	Status      string     `json:"status" binding:"omitempty,max=32"`
	Notes       *string    `json:"notes" binding:"omitempty,max=1000"`
}

// AttendanceUpdate is the body of PATCH /api/attendance/:id. Nil fields are left untouched.
type AttendanceUpdate struct {
	CheckOutTime *time.Time `json:"checkOutTime"`
	Status       *string    `json:"status" binding:"omitempty,max=32"`
	Notes        *string    `json:"notes" binding:"omitempty,max=1000"`
}
