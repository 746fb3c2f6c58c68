package notify

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"campus_events/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setup(t *testing.T) (*gorm.DB, *redis.Client) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notify.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Notification{}))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return db, rdb
}

func TestSendStoresAndPublishes(t *testing.T) {
	db, rdb := setup(t)
	ctx := context.Background()

	sub := Subscribe(ctx, rdb, 5)
	defer sub.Close()
	// Wait for the subscription to be confirmed before publishing
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	note, err := New(db, rdb).Send(ctx, 5, domain.NotifySuccess, "Approved", "Your event was approved")
	require.NoError(t, err)
	assert.NotZero(t, note.ID)

	var stored domain.Notification
	require.NoError(t, db.First(&stored, note.ID).Error)
	assert.Equal(t, "Approved", stored.Title)
	assert.False(t, stored.IsRead)

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, Channel(5), msg.Channel)
		got, err := Decode(msg.Payload)
		require.NoError(t, err)
		assert.Equal(t, note.ID, got.ID)
		assert.Equal(t, domain.NotifySuccess, got.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestSendNormalisesKind(t *testing.T) {
	db, _ := setup(t)
	note, err := New(db, nil).Send(context.Background(), 1, "shout", "t", "m")
	require.NoError(t, err)
	assert.Equal(t, domain.NotifyInfo, note.Type)
}

func TestSendToRole(t *testing.T) {
	db, rdb := setup(t)
	for i, role := range []string{domain.RoleAdmin, domain.RoleAdmin, domain.RoleStudent} {
		u := domain.User{Name: "u", Email: string(rune('a'+i)) + "@campus.edu", Password: "x", Role: role}
		require.NoError(t, db.Create(&u).Error)
	}

	notes, err := New(db, rdb).SendToRole(context.Background(), domain.RoleAdmin, domain.NotifyInfo, "New event", "Pending review")
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	notes, err = New(db, rdb).SendToRole(context.Background(), domain.RoleClub, domain.NotifyInfo, "x", "y")
	require.NoError(t, err)
	assert.Empty(t, notes)
}
