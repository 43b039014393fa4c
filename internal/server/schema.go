package server

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// requestSchema checks the shape of a generation request body. Value rules
// (ranges, counts, enum membership) are left to generation.Request.Validate
// so that every violation is reported together.
const requestSchema = `{
  "type": "object",
  "properties": {
    "subject":             {"type": "string"},
    "category":            {"type": "string"},
    "gradeLevel":          {"type": "integer"},
    "questionTypes":       {"type": "array", "items": {"type": "string"}},
    "questionFormat":      {"type": "string"},
    "difficultyLevel":     {"type": "string"},
    "numberOfQuestions":   {"type": "integer"},
    "learningStyle":       {"type": "string"},
    "interests":           {"type": "array", "items": {"type": "string"}},
    "motivators":          {"type": "array", "items": {"type": "string"}},
    "focusAreas":          {"type": "array", "items": {"type": "string"}},
    "includeExplanations": {"type": "boolean"}
  }
}`

const requestSchemaURL = "schema://generation-request.json"

func compileRequestSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(requestSchema)))
	if err != nil {
		return nil, fmt.Errorf("parse request schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(requestSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add request schema: %w", err)
	}
	return c.Compile(requestSchemaURL)
}

// checkBody parses body and validates it against the request schema.
func checkBody(schema *jsonschema.Schema, body []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema mismatch: %w", err)
	}
	return nil
}
