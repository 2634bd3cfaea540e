package quote

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema is the structural gate for the request body: it checks JSON
// types only. Business rules (lengths, patterns, enum membership) live in
// Validate so violations come back as French field messages.
const payloadSchema = `{
	"type": "object",
	"properties": {
		"name":         {"type": "string"},
		"email":        {"type": "string"},
		"phone":        {"type": "string"},
		"city":         {"type": "string"},
		"projectType":  {"type": "string"},
		"message":      {"type": "string"},
		"captchaToken": {"type": "string"},
		"wizardData": {
			"type": "object",
			"properties": {
				"serviceType": {"type": "string"},
				"poolType":    {"type": "string"},
				"dimensions":  {"type": "string"},
				"terrain":     {"type": "string"},
				"budget":      {"type": "string"},
				"timeline":    {"type": "string"},
				"postalCode":  {"type": "string"}
			},
			"additionalProperties": true
		}
	},
	"additionalProperties": true
}`

var payloadSchemaLoader = gojsonschema.NewStringLoader(payloadSchema)

// CheckShape validates that body is a JSON object of the expected shape.
// It returns a descriptive error for logging; callers surface only a generic
// message to the client.
func CheckShape(body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("empty request body")
	}

	result, err := gojsonschema.Validate(payloadSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("body is not valid JSON: %w", err)
	}

	if !result.Valid() {
		descs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			descs = append(descs, e.String())
		}
		return fmt.Errorf("body shape invalid: %s", strings.Join(descs, "; "))
	}

	return nil
}
