package api

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// Schema names, one per file under schemas/.
const (
	schemaSession  = "session"
	schemaTopic    = "topic"
	schemaImport   = "import"
	schemaLog      = "log"
	schemaGoal     = "goal"
	schemaSettings = "settings"
)

var schemas = mustLoadSchemas()

func mustLoadSchemas() map[string]*gojsonschema.Schema {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		panic(fmt.Sprintf("read schemas: %v", err))
	}
	out := make(map[string]*gojsonschema.Schema, len(entries))
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("read schema %s: %v", e.Name(), err))
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			panic(fmt.Sprintf("compile schema %s: %v", e.Name(), err))
		}
		out[strings.TrimSuffix(e.Name(), ".json")] = s
	}
	return out
}

// ValidationError lists every schema violation of a request body.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return "request body is invalid: " + e.Fields[0].Message
	}
	return fmt.Sprintf("request body is invalid: %d problems", len(e.Fields))
}

// decode reads the JSON body, checks it against the named schema and
// unmarshals it into dst.
func decode(w http.ResponseWriter, r *http.Request, schema string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return &ValidationError{Fields: []FieldError{{Field: "(root)", Message: "request body is required"}}}
	}

	result, err := schemas[schema].Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{Fields: []FieldError{{Field: "(root)", Message: "malformed JSON"}}}
	}
	if !result.Valid() {
		verr := &ValidationError{}
		for _, e := range result.Errors() {
			verr.Fields = append(verr.Fields, FieldError{Field: e.Field(), Message: e.String()})
		}
		return verr
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &ValidationError{Fields: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return nil
}
