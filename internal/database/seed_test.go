package database

import (
	"context"
	"testing"

	"tourcrm/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemoDataOnEmptyDB(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	seeded, err := db.SeedDemoData(ctx, DefaultSeed())
	require.NoError(t, err)
	assert.True(t, seeded)

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Manager Anna", users[0].Username)
	assert.Equal(t, "Manager Ivan", users[1].Username)

	bookings, err := db.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "Test Client", bookings[0].ClientName)
	assert.Equal(t, models.PriorityHigh, bookings[0].Priority)
	require.NotNil(t, bookings[0].ManagerID)
	assert.Equal(t, users[0].ID, *bookings[0].ManagerID)

	notes, err := db.GetBookingNotes(ctx, bookings[0].ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Клиент просил место у окна", notes[0].Text)
	assert.Equal(t, "Manager Anna", notes[0].Author)

	chat, err := db.GetRecentChatMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, chat, 1)
	assert.Equal(t, models.SystemAuthor, chat[0].Sender)
	assert.Equal(t, "CRM запущена", chat[0].Text)
}

func TestSeedDemoDataSkipsNonEmptyDB(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{Username: "Existing", Role: models.RoleAdmin}))

	seeded, err := db.SeedDemoData(ctx, DefaultSeed())
	require.NoError(t, err)
	assert.False(t, seeded)

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
