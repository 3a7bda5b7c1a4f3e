package chat

import (
	"fmt"

	"indexchat/internal/model"
)

// SystemPrompt is prepended to every user message on the first call.
const SystemPrompt = "You are a helpful assistant for an internal finance analytics platform. " +
	"When asked about index performance, call tools to retrieve data and " +
	"never make up numeric values."

const SnapshotToolName = "get_latest_index_snapshot"

// SnapshotTool is the only function the model is allowed to call.
var SnapshotTool = model.ToolDeclaration{
	Name:        SnapshotToolName,
	Description: "Get the latest performance snapshot for an index by ID.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index_id": map[string]any{
				"type":        "string",
				"description": "The index ID, e.g. '2003RealEstate'.",
			},
		},
		"required": []string{"index_id"},
	},
}

type snapshotArgs struct {
	IndexID string `mapstructure:"index_id"`
}

func buildPrompt(message string) string {
	return fmt.Sprintf("%s\n\nUser: %s", SystemPrompt, message)
}
