package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"tracker-service/internal/models"
	"tracker-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, senderID int, content string, isSystem bool) (models.ChatMessage, error) {
	args := m.Called(ctx, senderID, content, isSystem)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) RecentMessages(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, limit)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

type LocationRepositoryMock struct {
	mock.Mock
}

func (m *LocationRepositoryMock) CreateLocation(ctx context.Context, userID int, in models.LocationInput) (models.LocationEvent, error) {
	args := m.Called(ctx, userID, in)
	var loc models.LocationEvent
	if val := args.Get(0); val != nil {
		loc = val.(models.LocationEvent)
	}
	return loc, args.Error(1)
}

func (m *LocationRepositoryMock) ListByUser(ctx context.Context, userID int) ([]models.LocationEvent, error) {
	args := m.Called(ctx, userID)
	var locs []models.LocationEvent
	if val := args.Get(0); val != nil {
		locs = val.([]models.LocationEvent)
	}
	return locs, args.Error(1)
}

func (m *LocationRepositoryMock) CurrentForAllUsers(ctx context.Context) ([]models.LocationEvent, error) {
	args := m.Called(ctx)
	var locs []models.LocationEvent
	if val := args.Get(0); val != nil {
		locs = val.([]models.LocationEvent)
	}
	return locs, args.Error(1)
}

type AttendanceRepositoryMock struct {
	mock.Mock
}

func (m *AttendanceRepositoryMock) CheckIn(ctx context.Context, userID int, checkIn time.Time, status string, notes *string, dayStart, dayEnd time.Time) (models.Attendance, error) {
	args := m.Called(ctx, userID, checkIn, status, notes, dayStart, dayEnd)
	var rec models.Attendance
	if val := args.Get(0); val != nil {
		rec = val.(models.Attendance)
	}
	return rec, args.Error(1)
}

func (m *AttendanceRepositoryMock) GetAttendance(ctx context.Context, attendanceID int) (models.Attendance, error) {
	args := m.Called(ctx, attendanceID)
	var rec models.Attendance
	if val := args.Get(0); val != nil {
		rec = val.(models.Attendance)
	}
	return rec, args.Error(1)
}

func (m *AttendanceRepositoryMock) UpdateAttendance(ctx context.Context, attendanceID int, upd models.AttendanceUpdate) (models.Attendance, error) {
	args := m.Called(ctx, attendanceID, upd)
	var rec models.Attendance
	if val := args.Get(0); val != nil {
		rec = val.(models.Attendance)
	}
	return rec, args.Error(1)
}

func (m *AttendanceRepositoryMock) ListByUser(ctx context.Context, userID int) ([]models.Attendance, error) {
	args := m.Called(ctx, userID)
	var recs []models.Attendance
	if val := args.Get(0); val != nil {
		recs = val.([]models.Attendance)
	}
	return recs, args.Error(1)
}

func (m *AttendanceRepositoryMock) ListBetween(ctx context.Context, from, to time.Time) ([]models.Attendance, error) {
	args := m.Called(ctx, from, to)
	var recs []models.Attendance
	if val := args.Get(0); val != nil {
		recs = val.([]models.Attendance)
	}
	return recs, args.Error(1)
}

type LocationCacheMock struct {
	mock.Mock
}

func (m *LocationCacheMock) Put(ctx context.Context, loc models.LocationEvent) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *LocationCacheMock) All(ctx context.Context) ([]models.LocationEvent, error) {
	args := m.Called(ctx)
	var locs []models.LocationEvent
	if val := args.Get(0); val != nil {
		locs = val.([]models.LocationEvent)
	}
	return locs, args.Error(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.LocationRepository = (*LocationRepositoryMock)(nil)
var _ repositories.AttendanceRepository = (*AttendanceRepositoryMock)(nil)
var _ repositories.LocationCache = (*LocationCacheMock)(nil)
