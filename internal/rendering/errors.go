// Package rendering renders the résumé preview from templates.
package rendering

import "fmt"

// TemplateError reports a preview template that could not be loaded, parsed or executed.
// Template is the file path of a custom template or the name of a built-in one.
type TemplateError struct {
	Template string
	Message  string
	Cause    error
}

func (e *TemplateError) Error() string {
	msg := e.Message
	if e.Template != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.Template)
	}
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("template error: %s", msg)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}
