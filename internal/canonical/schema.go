package canonical

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed canonical_event.schema.json
var schemaSource string

const schemaResourceName = "canonical_event.json"

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaOnce sync.Once
	compiledSchemaErr  error
)

func schema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		var doc any
		if err := json.Unmarshal([]byte(schemaSource), &doc); err != nil {
			compiledSchemaErr = fmt.Errorf("canonical: parse embedded schema: %w", err)
			return
		}
		if err := c.AddResource(schemaResourceName, doc); err != nil {
			compiledSchemaErr = fmt.Errorf("canonical: add schema resource: %w", err)
			return
		}
		sch, err := c.Compile(schemaResourceName)
		if err != nil {
			compiledSchemaErr = fmt.Errorf("canonical: compile schema: %w", err)
			return
		}
		compiledSchema = sch
	})
	return compiledSchema, compiledSchemaErr
}

// Validate checks e against the canonical event JSON Schema. This is the
// strict boundary of the "lenient decoder at the vendor boundary, strict
// one at the canonical boundary" design note: normalizers decode vendor
// JSON permissively, but nothing reaches events.jsonl without passing here.
func Validate(e Event) error {
	sch, err := schema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("canonical: marshal event for validation: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("canonical: unmarshal event for validation: %w", err)
	}

	if err := sch.Validate(instance); err != nil {
		return fmt.Errorf("canonical: event failed schema validation: %w", err)
	}
	return nil
}

// ValidationSummary renders a short, single-line description of a
// validation failure suitable for embedding in a synthesized error event.
func ValidationSummary(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}
