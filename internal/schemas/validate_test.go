package schemas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/meucv/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSON_ValidJSON(t *testing.T) {
	schemaPath := filepath.Join("testdata", "valid_schema.json")
	jsonPath := filepath.Join("testdata", "valid_json.json")

	err := ValidateJSON(schemaPath, jsonPath)
	assert.NoError(t, err)
}

func TestValidateJSON_InvalidJSON_MissingField(t *testing.T) {
	schemaPath := filepath.Join("testdata", "valid_schema.json")
	jsonPath := filepath.Join("testdata", "invalid_json.json")

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSON_InvalidJSON_WrongType(t *testing.T) {
	schemaPath := filepath.Join("testdata", "valid_schema.json")
	jsonPath := filepath.Join("testdata", "type_mismatch.json")

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "name", validationErr.Errors[0].Field)
}

func TestValidateJSON_NonExistentSchema(t *testing.T) {
	err := ValidateJSON("testdata/nonexistent_schema.json", filepath.Join("testdata", "valid_json.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_NonExistentJSON(t *testing.T) {
	err := ValidateJSON(filepath.Join("testdata", "valid_schema.json"), "testdata/nonexistent_json.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestValidateJSON_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()
	malformedJSON := filepath.Join(tmpDir, "malformed.json")
	require.NoError(t, os.WriteFile(malformedJSON, []byte("{ invalid json }"), 0644))

	err := ValidateJSON(filepath.Join("testdata", "valid_schema.json"), malformedJSON)
	require.Error(t, err)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "settings.template", Message: "must be one of the following"},
			{Field: "skills.0.level", Message: "is required"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "1. settings.template")
	assert.Contains(t, errorMsg, "2. skills.0.level")
}

func TestValidateDocument_Valid(t *testing.T) {
	assert.NoError(t, ValidateDocumentFile(filepath.Join("testdata", "cv_valid.json")))
}

func TestValidateDocument_DefaultDocument(t *testing.T) {
	data, err := json.Marshal(types.DefaultCVData())
	require.NoError(t, err)

	assert.NoError(t, ValidateDocument(data))
}

func TestValidateDocument_Invalid(t *testing.T) {
	valid, err := os.ReadFile(filepath.Join("testdata", "cv_valid.json"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		edit  func(doc map[string]any)
		field string
	}{
		{"unknown template", func(doc map[string]any) {
			doc["settings"].(map[string]any)["template"] = "fancy"
		}, "settings.template"},
		{"bad accent colour", func(doc map[string]any) {
			doc["settings"].(map[string]any)["accentColor"] = "purple"
		}, "settings.accentColor"},
		{"unknown skill level", func(doc map[string]any) {
			doc["skills"].([]any)[0].(map[string]any)["level"] = "godlike"
		}, "skills.0.level"},
		{"bad month", func(doc map[string]any) {
			doc["experiences"].([]any)[0].(map[string]any)["startDate"] = "02/2020"
		}, "experiences.0.startDate"},
		{"duplicate section", func(doc map[string]any) {
			doc["sectionOrder"] = []string{"skills", "skills", "profile", "experience", "education", "languages"}
		}, "sectionOrder"},
		{"missing settings", func(doc map[string]any) {
			delete(doc, "settings")
		}, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, json.Unmarshal(valid, &doc))
			tt.edit(doc)
			data, err := json.Marshal(doc)
			require.NoError(t, err)

			err = ValidateDocument(data)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)

			fields := []string{}
			for _, fe := range validationErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, strings.Join(fields, ","), tt.field)
		})
	}
}

func TestValidateDocument_NotJSON(t *testing.T) {
	err := ValidateDocument([]byte("{not json"))
	var docErr *DocumentError
	assert.ErrorAs(t, err, &docErr)
}

func TestValidateDocumentFile_Missing(t *testing.T) {
	err := ValidateDocumentFile("testdata/nope.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestResolveSchemaPath(t *testing.T) {
	path := ResolveSchemaPath(filepath.Join("schemas", "cv_document.schema.json"))
	require.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path))

	assert.Empty(t, ResolveSchemaPath("schemas/does_not_exist.json"))
}
