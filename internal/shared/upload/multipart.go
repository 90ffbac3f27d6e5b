package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	json "github.com/goccy/go-json"
)

// Multipart form field names from the GraphQL multipart request convention.
const (
	FieldOperations = "operations"
	FieldMap        = "map"
)

// operations is the JSON shape of the multipart "operations" field.
type operations struct {
	Query     string `json:"query"`
	Variables any    `json:"variables"`
}

// BuildBody encodes an operation and its files as a GraphQL multipart request
// body: one "operations" field with every file position nulled, one "map"
// field linking decimal indices to variable paths, and one binary part per
// file keyed by its index.
//
// Explicit files are indexed first and mapped to variables.files.<i>;
// files discovered inside variables continue the index sequence. The caller
// must send the returned content type unchanged, since it carries the
// generated part boundary.
func BuildBody(query string, variables map[string]any, files []File) (*bytes.Buffer, string, error) {
	ex := Extract(variablesAsAny(variables))

	indexMap := make(map[string][]string, len(files)+len(ex.Files))
	for i := range files {
		indexMap[strconv.Itoa(i)] = []string{fmt.Sprintf("variables.files.%d", i)}
	}
	offset := len(files)
	for i := range ex.Files {
		indexMap[strconv.Itoa(offset+i)] = ex.Map[strconv.Itoa(i)]
	}

	clean, _ := ex.Variables.(map[string]any)
	if clean == nil {
		clean = make(map[string]any)
	}
	if len(files) > 0 {
		// The declared variables.files.<i> paths must resolve against a
		// real array shape; an array already supplied by the caller is
		// left untouched.
		if _, ok := clean["files"]; !ok {
			clean["files"] = make([]any, len(files))
		}
	}

	all := make([]File, 0, len(files)+len(ex.Files))
	all = append(all, files...)
	all = append(all, ex.Files...)
	for i, f := range all {
		if err := validateFile(i, f); err != nil {
			return nil, "", err
		}
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	opsJSON, err := json.Marshal(operations{Query: query, Variables: clean})
	if err != nil {
		return nil, "", fmt.Errorf("encode operations: %w", err)
	}
	if err := w.WriteField(FieldOperations, string(opsJSON)); err != nil {
		return nil, "", err
	}

	mapJSON, err := json.Marshal(indexMap)
	if err != nil {
		return nil, "", fmt.Errorf("encode map: %w", err)
	}
	if err := w.WriteField(FieldMap, string(mapJSON)); err != nil {
		return nil, "", err
	}

	for i, f := range all {
		part, err := w.CreateFormFile(strconv.Itoa(i), f.Name())
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("read file %d (%s): %w", i, f.Name(), err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// variablesAsAny keeps a nil variables map from turning into a non-nil
// interface holding a nil map.
func variablesAsAny(variables map[string]any) any {
	if variables == nil {
		return nil
	}
	return variables
}
