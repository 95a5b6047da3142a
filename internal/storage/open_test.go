package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ganot/convlog/internal/config"
	"github.com/ganot/convlog/internal/domain/activity"
)

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		db   config.DBConfig
	}{
		{"memory", config.DBConfig{Driver: config.DriverMemory}},
		{"sqlite", config.DBConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "nested", "a.db")}},
		{"gorm-sqlite", config.DBConfig{Driver: config.DriverGormSQLite, Path: filepath.Join(dir, "b.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.DB = tt.db

			backend, err := Open(cfg, nil)
			require.NoError(t, err)
			defer backend.Close()

			ctx := context.Background()
			svc := activity.NewService(backend.Storage, ServiceOptions(cfg.Store), nil)
			require.NoError(t, svc.Log(ctx, &activity.Activity{
				Type:         activity.TypeMessage,
				Timestamp:    time.Now().UTC(),
				ChannelID:    "c1",
				From:         activity.ChannelAccount{ID: "bot"},
				Conversation: activity.ConversationAccount{ID: "k1"},
				Recipient:    activity.ChannelAccount{ID: "u1"},
			}))

			got, err := svc.ListActivities(ctx, "c1", "k1", time.Time{})
			require.NoError(t, err)
			require.Len(t, got, 1)
		})
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Driver = "oracle"
	_, err := Open(cfg, nil)
	require.Error(t, err)
}

func TestServiceOptions(t *testing.T) {
	opts := ServiceOptions(config.StoreConfig{AutoCommit: true, PageSize: 10, ScopedUserDeletion: true})
	require.Equal(t, activity.Options{AutoCommit: true, PageSize: 10, ScopedUserDeletion: true}, opts)
}
