package mcp

import (
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

type sampleArgs struct {
	Recipient string  `json:"recipient" jsonschema:"required,description=Where to deliver"`
	Limit     *int    `json:"limit,omitempty" jsonschema:"description=How many to return"`
	Unread    *bool   `json:"unread,omitempty" jsonschema:"description=Unread filter"`
	Chat      *string `json:"chat,omitempty" jsonschema:"description=Chat GUID"`
	Skipped   string  `json:"-"`
}

func TestReflectToMCPOptions(t *testing.T) {
	tool := mcpgo.NewTool("sample", ReflectToMCPOptions("A sample tool", sampleArgs{})...)

	if tool.Description != "A sample tool" {
		t.Errorf("expected tool description, got %q", tool.Description)
	}

	for _, name := range []string{"recipient", "limit", "unread", "chat"} {
		if _, ok := tool.InputSchema.Properties[name]; !ok {
			t.Errorf("expected property %q in schema", name)
		}
	}
	if _, ok := tool.InputSchema.Properties["skipped"]; ok {
		t.Error("untagged field leaked into schema")
	}

	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "recipient" {
		t.Errorf("expected only recipient required, got %v", tool.InputSchema.Required)
	}

	limit, ok := tool.InputSchema.Properties["limit"].(map[string]any)
	if !ok {
		t.Fatal("limit property is not an object")
	}
	if limit["type"] != "number" {
		t.Errorf("expected limit to be a number, got %v", limit["type"])
	}
}
