// internal/agent/core/validate.go
package core

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"household-agent/internal/common/errors"
)

// TokenPattern is the literal confirmation token format checked at the
// boundary before any store lookup.
const TokenPattern = `^pa_[a-f0-9]{32}$`

const requestSchema = `{
	"type": "object",
	"properties": {
		"message":           {"type": "string", "maxLength": 4000},
		"conversationId":    {"type": "string", "maxLength": 128},
		"domainHint":        {"type": "string", "enum": ["", "tasks", "meals"]},
		"confirmationToken": {"type": "string", "pattern": "^pa_[a-f0-9]{32}$"},
		"confirmed":         {"type": "boolean"}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

func loadRequestSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	})
	return compiledSchema, schemaErr
}

// ValidateRequest checks the wire-level request shape. A request must carry
// either a non-empty message or a well-formed confirmation token.
func ValidateRequest(req *AgentRequest) error {
	schema, err := loadRequestSchema()
	if err != nil {
		return errors.NewRequestValidationError(fmt.Sprintf("schema compile: %s", err.Error()))
	}

	doc := map[string]interface{}{
		"message":   req.Message,
		"confirmed": req.Confirmed,
	}
	if req.ConversationID != "" {
		doc["conversationId"] = req.ConversationID
	}
	if req.DomainHint != "" {
		doc["domainHint"] = req.DomainHint
	}
	if req.ConfirmationToken != "" {
		doc["confirmationToken"] = req.ConfirmationToken
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.NewRequestValidationError(err.Error())
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.NewRequestValidationError(strings.Join(msgs, "; "))
	}

	if req.ConfirmationToken == "" && strings.TrimSpace(req.Message) == "" {
		return errors.NewRequestValidationError("message is required when no confirmation token is present")
	}

	return nil
}
