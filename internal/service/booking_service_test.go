package service

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"tourcrm/internal/database"
	"tourcrm/internal/events"
	"tourcrm/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *database.DB {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newBookingService(t *testing.T, db *database.DB) *BookingService {
	logger := zerolog.New(os.Stdout)
	return NewBookingService(db, events.NewEventBus(), &logger)
}

func seedBooking(t *testing.T, db *database.DB) *models.Booking {
	b := &models.Booking{
		ClientName:  "Test Client",
		ClientPhone: "+79990001122",
		TourType:    "Red Bus",
		Status:      models.StatusNew,
		Priority:    models.PriorityHigh,
		Price:       5000,
		Cost:        1000,
		TourDate:    time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.CreateBooking(context.Background(), b))
	return b
}

func strPtr(s string) *string { return &s }

func TestUpdateBookingPartialPatch(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()
	b := seedBooking(t, db)

	patch := models.BookingPatch{
		ClientName: strPtr("Renamed"),
		Price:      strPtr("7500.50"),
	}
	require.NoError(t, svc.UpdateBooking(ctx, b.ID, patch))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.ClientName)
	assert.Equal(t, 7500.50, got.Price)
	// Не присланные поля не тронуты
	assert.Equal(t, "Red Bus", got.TourType)
	assert.Equal(t, models.PriorityHigh, got.Priority)
}

func TestUpdateBookingBadPriceKeepsOldValue(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()
	b := seedBooking(t, db)

	patch := models.BookingPatch{Price: strPtr("дорого")}
	require.NoError(t, svc.UpdateBooking(ctx, b.ID, patch))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, got.Price)
}

func TestUpdateBookingBadDateKeepsOldValue(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()
	b := seedBooking(t, db)

	patch := models.BookingPatch{TourDate: "15.09.2026"}
	require.NoError(t, svc.UpdateBooking(ctx, b.ID, patch))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-15", got.TourDate.Format(models.TourDateFormat))
}

func TestUpdateBookingManagerAssignment(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()

	user := &models.User{Username: "Manager Anna", Role: models.RoleManager}
	require.NoError(t, db.CreateUser(ctx, user))
	b := seedBooking(t, db)

	require.NoError(t, svc.UpdateBooking(ctx, b.ID, models.BookingPatch{ManagerID: "1"}))
	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ManagerID)
	assert.Equal(t, int64(1), *got.ManagerID)

	// Пустой manager_id снимает назначение
	require.NoError(t, svc.UpdateBooking(ctx, b.ID, models.BookingPatch{ManagerID: ""}))
	got, err = db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ManagerID)
}

func TestUpdateBookingNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)

	err := svc.UpdateBooking(context.Background(), 999, models.BookingPatch{})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestAddNote(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()
	b := seedBooking(t, db)

	note, err := svc.AddNote(ctx, b.ID, "клиент просил место у окна", "Manager Anna")
	require.NoError(t, err)
	assert.Equal(t, "Manager Anna", note.Author)
	assert.Equal(t, "клиент просил место у окна", note.Text)
	assert.NotEmpty(t, note.Date)

	notes, err := db.GetBookingNotes(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestAddNoteBlankRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()
	b := seedBooking(t, db)

	_, err := svc.AddNote(ctx, b.ID, "   \t ", "Manager Anna")
	assert.ErrorIs(t, err, ErrEmptyText)

	notes, err := db.GetBookingNotes(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestAddNoteDefaultAuthorAndTruncation(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()
	b := seedBooking(t, db)

	long := strings.Repeat("ж", models.NoteMaxLength+50)
	note, err := svc.AddNote(ctx, b.ID, long, "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNoteAuthor, note.Author)
	assert.Equal(t, models.NoteMaxLength, len([]rune(note.Text)))
}

func TestSetStatus(t *testing.T) {
	db := newTestDB(t)
	bus := events.NewEventBus()
	logger := zerolog.New(os.Stdout)
	svc := NewBookingService(db, bus, &logger)
	ctx := context.Background()
	b := seedBooking(t, db)

	received := make(chan events.BookingEventPayload, 1)
	bus.Subscribe(events.EventBookingStatusChanged, func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return err
		}
		received <- payload
		return nil
	})

	require.NoError(t, svc.SetStatus(ctx, b.ID, models.StatusPaid))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, got.Status)

	select {
	case payload := <-received:
		assert.Equal(t, models.StatusNew, payload.OldStatus)
		assert.Equal(t, models.StatusPaid, payload.Status)
	case <-time.After(time.Second):
		t.Fatal("status change event not received")
	}
}

func TestSetStatusNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)

	err := svc.SetStatus(context.Background(), 999, models.StatusPaid)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestQuickCreate(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{Username: "Manager Anna", Role: models.RoleManager}))

	booking, err := svc.QuickCreate(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(booking.ClientName, "New Client "))
	assert.Equal(t, models.QuickCreatePhone, booking.ClientPhone)
	assert.Equal(t, models.QuickCreateTourType, booking.TourType)
	assert.Equal(t, models.StatusNew, booking.Status)
	assert.Equal(t, models.PriorityMedium, booking.Priority)
	assert.Equal(t, float64(models.QuickCreatePrice), booking.Price)
	assert.Equal(t, float64(models.QuickCreateCost), booking.Cost)
	require.NotNil(t, booking.ManagerID)
	assert.Equal(t, int64(models.DefaultManagerID), *booking.ManagerID)

	wantDate := time.Now().AddDate(0, 0, models.QuickCreateDaysOut).Format(models.TourDateFormat)
	assert.Equal(t, wantDate, booking.TourDate.Format(models.TourDateFormat))
}

func TestGetDetailsFormatting(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)
	ctx := context.Background()
	b := seedBooking(t, db)

	_, err := svc.AddNote(ctx, b.ID, "первая заметка", "Manager Anna")
	require.NoError(t, err)

	detail, err := svc.GetDetails(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, detail.ID)
	assert.Equal(t, "Test Client", detail.Client)
	assert.Equal(t, "2026-09-15", detail.Date)
	require.Len(t, detail.Notes, 1)
	assert.Equal(t, "Manager Anna", detail.Notes[0].Author)
	// DD.MM HH:MM
	assert.Regexp(t, `^\d{2}\.\d{2} \d{2}:\d{2}$`, detail.Notes[0].Date)
}

func TestGetDetailsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newBookingService(t, db)

	_, err := svc.GetDetails(context.Background(), 999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
