package task

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const listSchemaURL = "https://taskdeck.local/schemas/task-list.json"

// ListSchema is the JSON Schema a task list payload must satisfy.
// Unknown properties are allowed so newer servers stay compatible.
const ListSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Task list",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "completed"],
    "properties": {
      "id": {"type": "integer"},
      "title": {"type": "string"},
      "description": {"type": ["string", "null"]},
      "completed": {"type": "boolean"},
      "created_at": {"type": ["string", "null"]},
      "updated_at": {"type": ["string", "null"]}
    }
  }
}`

var (
	listSchemaOnce sync.Once
	listSchema     *jsonschema.Schema
	listSchemaErr  error
)

func compiledListSchema() (*jsonschema.Schema, error) {
	listSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(listSchemaURL, strings.NewReader(ListSchema)); err != nil {
			listSchemaErr = fmt.Errorf("add task list schema: %w", err)
			return
		}
		listSchema, listSchemaErr = compiler.Compile(listSchemaURL)
	})
	return listSchema, listSchemaErr
}

// validateList checks a decoded JSON value against ListSchema and returns
// every violation joined into one error.
func validateList(v any) error {
	schema, err := compiledListSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		var errs []error
		collectSchemaErrors(&errs, err)
		return fmt.Errorf("task list does not match schema: %w", errors.Join(errs...))
	}
	return nil
}

func collectSchemaErrors(errs *[]error, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		*errs = append(*errs, err)
		return
	}
	if len(ve.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Path: jsonPointerToPath(ve.InstanceLocation),
			Err:  errors.New(ve.Message),
		})
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaErrors(errs, cause)
	}
}

// jsonPointerToPath turns "/0/title" into "[0].title".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
