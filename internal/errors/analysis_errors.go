package errors

import (
	"errors"
	"fmt"
)

// Core analysis error taxonomy. Errors scoped to a single instrument are
// captured into that instrument's result by the pipeline; only whole-workbook
// failures propagate out of Analyze.

// SchemaError indicates the workbook structure is unusable: the file could
// not be opened, a required column could not be resolved on a sheet, or no
// sheet contains instrument data.
type SchemaError struct {
	Sheet  string
	Column string
	Reason string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Reason != "" {
		if e.Sheet != "" {
			return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Reason)
		}
		return e.Reason
	}
	if e.Column == "" {
		if e.Sheet == "" {
			return "workbook contains no usable instrument data"
		}
		return fmt.Sprintf("sheet %q: no usable instrument data", e.Sheet)
	}
	if e.Sheet == "" {
		return fmt.Sprintf("required column %q not found in workbook", e.Column)
	}
	return fmt.Sprintf("sheet %q: required column %q not found", e.Sheet, e.Column)
}

// NewSchemaError creates a schema error for a missing column on a sheet
func NewSchemaError(sheet, column string) *SchemaError {
	return &SchemaError{Sheet: sheet, Column: column}
}

// DataQualityError indicates too many rows were dropped during loading for
// the remaining data to be trusted.
type DataQualityError struct {
	Sheet       string
	Dropped     int
	Total       int
	MaxFraction float64
}

// Error implements the error interface
func (e *DataQualityError) Error() string {
	return fmt.Sprintf("sheet %q: dropped %d of %d rows, exceeds allowed fraction %.2f",
		e.Sheet, e.Dropped, e.Total, e.MaxFraction)
}

// ModelFitError indicates the feature set has fewer observations than the
// model family's minimum sample requirement.
type ModelFitError struct {
	Kind         string
	Observations int
	Required     int
}

// Error implements the error interface
func (e *ModelFitError) Error() string {
	return fmt.Sprintf("model %q: %d observations, need at least %d",
		e.Kind, e.Observations, e.Required)
}

// ConfigurationError indicates caller-supplied configuration references
// unknown features, model kinds, or invalid parameter values.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewConfigurationError creates a configuration error for a specific field
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// IsSchemaError reports whether err is (or wraps) a SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsDataQualityError reports whether err is (or wraps) a DataQualityError
func IsDataQualityError(err error) bool {
	var de *DataQualityError
	return errors.As(err, &de)
}

// IsModelFitError reports whether err is (or wraps) a ModelFitError
func IsModelFitError(err error) bool {
	var me *ModelFitError
	return errors.As(err, &me)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
