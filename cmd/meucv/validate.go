package main

import (
	"errors"
	"fmt"

	"github.com/jonathan/meucv/internal/schemas"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate résumé documents against the CV schema",
	Long:  "Checks that each file is a résumé document accepted by the embedded JSON Schema and lists every offending field.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

var validateSchema string

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "", "Validate against this JSON Schema file instead of the built-in CV schema")
	rootCmd.AddCommand(validateCmd)
}

// validateFile checks one file against the custom schema, if any, or the embedded one.
func validateFile(path string) error {
	if validateSchema == "" {
		return schemas.ValidateDocumentFile(path)
	}
	schemaPath := schemas.ResolveSchemaPath(validateSchema)
	if schemaPath == "" {
		schemaPath = validateSchema
	}
	return schemas.ValidateJSON(schemaPath, path)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		err := validateFile(path)
		if err == nil {
			fmt.Fprintf(out, "✓ %s\n", path)
			continue
		}

		failed++
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Fprintf(out, "✗ %s\n", path)
			for _, fe := range validationErr.Errors {
				fmt.Fprintf(out, "    %s: %s\n", fe.Field, fe.Message)
			}
			continue
		}
		fmt.Fprintf(out, "✗ %s: %v\n", path, err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed validation", failed, len(args))
	}
	return nil
}
