package mcp

import (
	"reflect"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

// ReflectToMCPOptions converts a struct definition into MCP tool options using
// reflection metadata. It parses json and jsonschema tags to construct the
// appropriate argument definitions for the mark3labs MCP server SDK. The tool
// argument schemas stay declared as plain structs next to their handlers.
func ReflectToMCPOptions(description string, structValue interface{}) []mcpgo.ToolOption {
	structType := reflect.TypeOf(structValue)
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}

	opts := []mcpgo.ToolOption{
		mcpgo.WithDescription(description),
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		jsonTag := field.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		name := strings.Split(jsonTag, ",")[0]

		jsSchema := field.Tag.Get("jsonschema")
		required := strings.Contains(jsSchema, "required")
		desc := extractDescription(jsSchema)

		propertyOpts := []mcpgo.PropertyOption{mcpgo.Description(desc)}
		if required {
			propertyOpts = append(propertyOpts, mcpgo.Required())
		}

		baseType := field.Type
		if baseType.Kind() == reflect.Ptr {
			baseType = baseType.Elem()
		}

		switch baseType.Kind() {
		case reflect.String:
			opts = append(opts, mcpgo.WithString(name, propertyOpts...))
		case reflect.Int, reflect.Int64, reflect.Float64:
			opts = append(opts, mcpgo.WithNumber(name, propertyOpts...))
		case reflect.Bool:
			opts = append(opts, mcpgo.WithBoolean(name, propertyOpts...))
		default:
			continue
		}
	}

	return opts
}

func extractDescription(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		if strings.HasPrefix(part, "description=") {
			return strings.TrimPrefix(part, "description=")
		}
	}
	return ""
}
