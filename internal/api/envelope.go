package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/idilsaglam/tada/internal/model"
)

const envelopeSchemaURL = "envelope.json"

const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "message": {"type": ["string", "null"]},
    "errors": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    }
  },
  "anyOf": [
    {"required": ["content"]},
    {"required": ["message"]},
    {"required": ["errors"]}
  ]
}`

var envelopeValidator = mustCompileEnvelopeSchema()

func mustCompileEnvelopeSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(envelopeSchemaURL, strings.NewReader(envelopeSchema)); err != nil {
		panic(fmt.Sprintf("envelope schema: %v", err))
	}
	return compiler.MustCompile(envelopeSchemaURL)
}

// decodeEnvelope checks body against the envelope schema and decodes it.
// An empty body yields a zero envelope.
func decodeEnvelope[T any](body []byte) (*model.Envelope[T], error) {
	env := &model.Envelope[T]{}
	if len(bytes.TrimSpace(body)) == 0 {
		return env, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := envelopeValidator.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedEnvelope, schemaMessage(err))
	}

	if err := json.Unmarshal(body, env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return env, nil
}

func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}
