// Package schemas holds the JSON Schemas of persisted artifacts.
package schemas

import _ "embed"

// CVDocument is the JSON Schema of a persisted résumé document.
//
//go:embed cv_document.schema.json
var CVDocument string

// CVDocumentFile is the file name of the CVDocument schema in this directory.
const CVDocumentFile = "cv_document.schema.json"
