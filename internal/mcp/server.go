package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/convlog/internal/domain/activity"
)

// ActivityService defines the activity log operations exposed over MCP.
type ActivityService interface {
	Log(ctx context.Context, act *activity.Activity) error
	ListActivities(ctx context.Context, channelID, conversationID string, olderThan time.Time) ([]activity.Activity, error)
	WalkActivities(ctx context.Context, filter activity.WalkFilter, visit activity.Visitor) error
	DeleteConversation(ctx context.Context, channelID, conversationID string) error
	DeleteOlderThan(ctx context.Context, oldest time.Time) (activity.DeleteStats, error)
	DeleteUserActivities(ctx context.Context, userID string) <-chan error
	Flush(ctx context.Context) error
}

// Config contains server configuration.
type Config struct {
	Service ActivityService
	Logger  *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "convlog",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Service)

	return server
}
