package plan

import (
	"bytes"
	"embed"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema/plan.schema.json
var schemaFS embed.FS

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schema/plan.schema.json")
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("plan.schema.json", doc); err != nil {
		return nil, err
	}
	return compiler.Compile("plan.schema.json")
})

// validateDocument checks the raw YAML plan against the embedded JSON schema
// before any typed decoding happens, so shape errors (non-mapping root, wrong
// vector arity, missing required keys) surface as validation errors with the
// offending location instead of as zero values further down the pipeline.
func validateDocument(raw []byte) error {
	sch, err := compileSchema()
	if err != nil {
		return err
	}

	var decoded any
	if err := yaml.Unmarshal(raw, &decoded); err != nil {
		return validationErrorf("cannot parse document: %v", err)
	}
	if decoded == nil {
		return validationErrorf("document is empty")
	}

	// Round-trip through JSON so the value uses the numeric and key types
	// the schema validator expects.
	jsonBytes, err := json.Marshal(decoded)
	if err != nil {
		return validationErrorf("document is not a JSON-compatible mapping: %v", err)
	}
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonBytes))
	if err != nil {
		return validationErrorf("cannot normalize document: %v", err)
	}

	if err := sch.Validate(value); err != nil {
		return validationErrorf("document does not match the plan schema: %v", err)
	}
	return nil
}
