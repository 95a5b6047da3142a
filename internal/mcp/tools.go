package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/convlog/internal/domain/activity"
)

const (
	defaultWalkLimit = 100
	maxWalkLimit     = 1000
)

func registerTools(server *sdkmcp.Server, svc ActivityService) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "log_activity",
		Description: "Store one activity under its (channel, conversation) key",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in LogActivityParams) (*sdkmcp.CallToolResult, LogActivityResult, error) {
		ts, err := parseTime(in.Timestamp)
		if err != nil {
			return nil, LogActivityResult{}, toolError(err)
		}
		act := &activity.Activity{
			Type:         in.Type,
			ID:           in.ID,
			Timestamp:    ts,
			ChannelID:    in.ChannelID,
			From:         activity.ChannelAccount{ID: in.FromID, Name: in.FromName},
			Conversation: activity.ConversationAccount{ID: in.ConversationID},
			Recipient:    activity.ChannelAccount{ID: in.RecipientID, Name: in.RecipientName},
			Text:         in.Text,
			Locale:       in.Locale,
			ReplyToID:    in.ReplyToID,
			Summary:      in.Summary,
		}
		if act.Type == "" {
			act.Type = activity.TypeMessage
		}
		if err := svc.Log(ctx, act); err != nil {
			return nil, LogActivityResult{}, toolError(err)
		}
		return nil, LogActivityResult{
			ID:        act.ID,
			Timestamp: act.Timestamp.UTC().Format(time.RFC3339Nano),
		}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_activities",
		Description: "List the activities of one conversation in timestamp order, optionally only those older than a cutoff",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListActivitiesParams) (*sdkmcp.CallToolResult, ActivityListResult, error) {
		olderThan, err := parseTime(in.OlderThan)
		if err != nil {
			return nil, ActivityListResult{}, toolError(err)
		}
		acts, err := svc.ListActivities(ctx, in.ChannelID, in.ConversationID, olderThan)
		if err != nil {
			return nil, ActivityListResult{}, toolError(err)
		}
		return nil, toActivityList(acts), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "walk_activities",
		Description: "Scan activities across conversations in timestamp order, up to a limit",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in WalkActivitiesParams) (*sdkmcp.CallToolResult, ActivityListResult, error) {
		olderThan, err := parseTime(in.OlderThan)
		if err != nil {
			return nil, ActivityListResult{}, toolError(err)
		}
		limit := in.Limit
		if limit <= 0 {
			limit = defaultWalkLimit
		}
		limit = min(limit, maxWalkLimit)

		var acts []activity.Activity
		truncated := false
		filter := activity.WalkFilter{
			ChannelID:      in.ChannelID,
			ConversationID: in.ConversationID,
			OlderThan:      olderThan,
		}
		err = svc.WalkActivities(ctx, filter, func(_ context.Context, act activity.Activity) error {
			if len(acts) == limit {
				truncated = true
				return activity.ErrStopWalk
			}
			acts = append(acts, act)
			return nil
		})
		if err != nil {
			return nil, ActivityListResult{}, toolError(err)
		}
		result := toActivityList(acts)
		result.Truncated = truncated
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_conversation",
		Description: "Delete a conversation and all of its activities",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteConversationParams) (*sdkmcp.CallToolResult, StatusResult, error) {
		if err := svc.DeleteConversation(ctx, in.ChannelID, in.ConversationID); err != nil {
			return nil, StatusResult{}, toolError(err)
		}
		return nil, StatusResult{Status: "deleted"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_user_activities",
		Description: "Delete every activity addressed to a user together with the conversations they belong to",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteUserActivitiesParams) (*sdkmcp.CallToolResult, StatusResult, error) {
		if err := awaitResult(ctx, svc.DeleteUserActivities(ctx, in.UserID)); err != nil {
			return nil, StatusResult{}, toolError(err)
		}
		return nil, StatusResult{Status: "deleted"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_older_than",
		Description: "Delete activities older than a cutoff and conversations left empty",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteOlderThanParams) (*sdkmcp.CallToolResult, DeleteStatsResult, error) {
		cutoff, err := parseTime(in.OlderThan)
		if err != nil {
			return nil, DeleteStatsResult{}, toolError(err)
		}
		stats, err := svc.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return nil, DeleteStatsResult{}, toolError(err)
		}
		return nil, DeleteStatsResult{Activities: stats.Activities, Conversations: stats.Conversations}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "flush",
		Description: "Commit pending changes when the store runs without auto-commit",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ FlushParams) (*sdkmcp.CallToolResult, StatusResult, error) {
		if err := svc.Flush(ctx); err != nil {
			return nil, StatusResult{}, toolError(err)
		}
		return nil, StatusResult{Status: "flushed"}, nil
	})
}

// parseTime accepts RFC 3339 timestamps. An empty string is the zero time.
func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", activity.ErrInvalidInput, value)
	}
	return ts.UTC(), nil
}

// awaitResult waits for the single value of an asynchronous operation.
func awaitResult(ctx context.Context, done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
