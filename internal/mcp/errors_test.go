package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ganot/convlog/internal/domain/activity"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: channel id is required", activity.ErrInvalidInput), "INVALID_INPUT"},
		{fmt.Errorf("%w: record 4: bad json", activity.ErrDeserialization), "DESERIALIZATION_ERROR"},
		{fmt.Errorf("%w: commit: disk full", activity.ErrStorage), "STORAGE_ERROR"},
		{context.Canceled, "CANCELLED"},
		{fmt.Errorf("walk: %w", context.DeadlineExceeded), "CANCELLED"},
	}
	for _, tt := range tests {
		apiErr := MapError(tt.err)
		require.NotNil(t, apiErr)
		require.Equal(t, tt.code, apiErr.Code)
		require.Contains(t, apiErr.Error(), tt.code)
	}

	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("other")))
	other := errors.New("other")
	require.Same(t, other, toolError(other))
}

func TestAwaitResult(t *testing.T) {
	done := make(chan error, 1)
	done <- activity.ErrInvalidInput
	require.ErrorIs(t, awaitResult(context.Background(), done), activity.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := toolError(awaitResult(ctx, make(chan error)))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "CANCELLED", apiErr.Code)
}

func TestParseTime(t *testing.T) {
	ts, err := parseTime("")
	require.NoError(t, err)
	require.True(t, ts.IsZero())

	ts, err = parseTime("2024-03-01T14:00:00+02:00")
	require.NoError(t, err)
	require.Equal(t, "2024-03-01T12:00:00Z", ts.Format("2006-01-02T15:04:05Z07:00"))

	_, err = parseTime("03/01/2024")
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}
