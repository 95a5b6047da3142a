package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `convlog stores the message activities a chatbot exchanges with its users.

Activities are grouped by (channel_id, conversation_id). Each one records the
sender (from_id) and the recipient (recipient_id).

- log_activity stores one activity; the conversation is created on first use.
- list_activities returns one conversation in timestamp order. older_than is an exclusive cutoff.
- walk_activities scans across conversations, limited by "limit".
- delete_conversation, delete_user_activities and delete_older_than remove data.
  Deleting a user's activities also removes every conversation they took part in.
- flush commits pending writes when the server runs with auto-commit disabled.

Timestamps are RFC 3339 strings in UTC.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "convlog://docs/retention",
		Name:        "docs_retention",
		Title:       "convlog data removal",
		Description: "How the delete tools and the retention pruner remove activities and conversations.",
		Content: `# Removing activities

## delete_conversation

Removes every activity of the conversation and the conversation itself.
Calling it again is a no-op.

## delete_user_activities

Removes every activity whose recipient is the user, then removes each
conversation those activities belonged to, including activities addressed to
other participants. Servers started with scoped user deletion keep
conversations that still hold other users' activities.

## delete_older_than

Removes activities with a timestamp before the cutoff, then conversations left
without activities. The response reports both counts.

## Retention pruner

When the server is configured with a retention window it runs
delete_older_than(now - retention) on a fixed interval.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
