package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tracker-service/internal/models"
)

var (
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrAlreadyCheckedIn   = errors.New("already checked in today")
)

const attendanceColumns = `id, user_id, check_in_time, check_out_time, status, notes`

// AttendanceRepository stores check-in records.
type AttendanceRepository interface {
	CheckIn(ctx context.Context, userID int, checkIn time.Time, status string, notes *string, dayStart, dayEnd time.Time) (models.Attendance, error)
	GetAttendance(ctx context.Context, attendanceID int) (models.Attendance, error)
	UpdateAttendance(ctx context.Context, attendanceID int, upd models.AttendanceUpdate) (models.Attendance, error)
	ListByUser(ctx context.Context, userID int) ([]models.Attendance, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Attendance, error)
}

// AttendanceRepo is a sqlx implementation of AttendanceRepository.
type AttendanceRepo struct {
	db *sqlx.DB
}

// NewAttendanceRepo constructs an AttendanceRepo.
func NewAttendanceRepo(db *sqlx.DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

// CheckIn inserts a check-in unless userID already has one in [dayStart, dayEnd).
// A per-user advisory lock serializes concurrent check-ins for the same user.
func (r *AttendanceRepo) CheckIn(ctx context.Context, userID int, checkIn time.Time, status string, notes *string, dayStart, dayEnd time.Time) (models.Attendance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Attendance{}, fmt.Errorf("begin check-in: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1::bigint)`, userID); err != nil {
		return models.Attendance{}, fmt.Errorf("lock check-in: %w", err)
	}

	var rec models.Attendance
	err = tx.QueryRowxContext(ctx, `INSERT INTO attendance (user_id, check_in_time, status, notes)
        SELECT $1::int, $2::timestamptz, $3::text, $4::text
        WHERE NOT EXISTS (SELECT 1 FROM attendance
            WHERE user_id=$1 AND check_in_time >= $5 AND check_in_time < $6)
        RETURNING `+attendanceColumns, userID, checkIn, status, notes, dayStart, dayEnd).
		StructScan(&rec)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Attendance{}, ErrAlreadyCheckedIn
	}
	if err != nil {
		return models.Attendance{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Attendance{}, fmt.Errorf("commit check-in: %w", err)
	}
	return rec, nil
}

// GetAttendance fetches a record by id.
func (r *AttendanceRepo) GetAttendance(ctx context.Context, attendanceID int) (models.Attendance, error) {
	var rec models.Attendance
	err := r.db.GetContext(ctx, &rec, `SELECT `+attendanceColumns+` FROM attendance WHERE id=$1`, attendanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Attendance{}, ErrAttendanceNotFound
	}
	return rec, err
}

// UpdateAttendance applies the non-nil fields of upd.
func (r *AttendanceRepo) UpdateAttendance(ctx context.Context, attendanceID int, upd models.AttendanceUpdate) (models.Attendance, error) {
	var rec models.Attendance
	err := r.db.QueryRowxContext(ctx, `UPDATE attendance SET
            check_out_time = COALESCE($2, check_out_time),
            status = COALESCE($3, status),
            notes = COALESCE($4, notes)
        WHERE id=$1 RETURNING `+attendanceColumns, attendanceID, upd.CheckOutTime, upd.Status, upd.Notes).
		StructScan(&rec)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Attendance{}, ErrAttendanceNotFound
	}
	return rec, err
}

// ListByUser returns a user's records, newest check-in first.
func (r *AttendanceRepo) ListByUser(ctx context.Context, userID int) ([]models.Attendance, error) {
	recs := []models.Attendance{}
	err := r.db.SelectContext(ctx, &recs, `SELECT `+attendanceColumns+` FROM attendance WHERE user_id=$1 ORDER BY check_in_time DESC`, userID)
	return recs, err
}

// ListBetween returns records whose check-in falls in [from, to).
func (r *AttendanceRepo) ListBetween(ctx context.Context, from, to time.Time) ([]models.Attendance, error) {
	recs := []models.Attendance{}
	err := r.db.SelectContext(ctx, &recs, `SELECT `+attendanceColumns+` FROM attendance
        WHERE check_in_time >= $1 AND check_in_time < $2 ORDER BY check_in_time`, from, to)
	return recs, err
}

// DayBounds returns the calendar day containing t in loc as [start, end).
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
