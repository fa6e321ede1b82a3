package monitor

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/action_request.json
var actionRequestSchema []byte

// ContractMonitor validates incoming request bodies against a JSON schema.
type ContractMonitor struct {
	schema *gojsonschema.Schema
}

// NewContractMonitor creates a new ContractMonitor with the given schema file path.
// The schemaPath should be an absolute path or relative to the execution directory.
func NewContractMonitor(schemaPath string) (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + schemaPath))
	if err != nil {
		return nil, fmt.Errorf("error loading or compiling schema %s: %w", schemaPath, err)
	}
	return &ContractMonitor{schema: schema}, nil
}

// NewContractMonitorFromSchema compiles an in-memory schema document.
func NewContractMonitorFromSchema(schema []byte) (*ContractMonitor, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("error compiling schema: %w", err)
	}
	return &ContractMonitor{schema: compiled}, nil
}

// NewActionRequestMonitor validates the bodies of gateway action requests.
func NewActionRequestMonitor() (*ContractMonitor, error) {
	return NewContractMonitorFromSchema(actionRequestSchema)
}

// Validate validates the given request body against the compiled schema.
// It returns true if valid, or false and a list of validation errors if invalid.
// A body that is not JSON at all is reported through the error.
func (cm *ContractMonitor) Validate(requestBody []byte) (bool, []string, error) {
	result, err := cm.schema.Validate(gojsonschema.NewBytesLoader(requestBody))
	if err != nil {
		return false, nil, fmt.Errorf("error during validation: %w", err)
	}

	if result.Valid() {
		return true, nil, nil
	}

	var errors []string
	for _, desc := range result.Errors() {
		errors = append(errors, desc.String())
	}
	return false, errors, nil
}

// FormatErrors formats a slice of validation error strings into a single string.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}
