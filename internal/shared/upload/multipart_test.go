package upload

import (
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bodyPart struct {
	name     string
	filename string
	content  string
}

func parseBody(t *testing.T, body io.Reader, contentType string) []bodyPart {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	var parts []bodyPart
	mr := multipart.NewReader(body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, bodyPart{
			name:     p.FormName(),
			filename: p.FileName(),
			content:  string(content),
		})
	}
	return parts
}

func TestBuildBodyMergesExplicitAndEmbeddedFiles(t *testing.T) {
	f1 := textFile("one.txt", "first")
	f2 := textFile("two.txt", "second")
	f3 := textFile("avatar.png", "image-bytes")

	body, contentType, err := BuildBody(
		`mutation($files: [Upload!]!, $avatar: Upload!) { upload }`,
		map[string]any{"avatar": f3},
		[]File{f1, f2},
	)
	require.NoError(t, err)

	parts := parseBody(t, body, contentType)
	require.Len(t, parts, 5)

	assert.Equal(t, FieldOperations, parts[0].name)
	assert.Equal(t, FieldMap, parts[1].name)

	var ops operations
	require.NoError(t, json.Unmarshal([]byte(parts[0].content), &ops))
	vars := ops.Variables.(map[string]any)
	assert.Equal(t, []any{nil, nil}, vars["files"])
	assert.Nil(t, vars["avatar"])

	var indexMap map[string][]string
	require.NoError(t, json.Unmarshal([]byte(parts[1].content), &indexMap))
	assert.Equal(t, map[string][]string{
		"0": {"variables.files.0"},
		"1": {"variables.files.1"},
		"2": {"variables.avatar"},
	}, indexMap)

	assert.Equal(t, bodyPart{"0", "one.txt", "first"}, parts[2])
	assert.Equal(t, bodyPart{"1", "two.txt", "second"}, parts[3])
	assert.Equal(t, bodyPart{"2", "avatar.png", "image-bytes"}, parts[4])
}

func TestBuildBodyPreservesCallerFilesArray(t *testing.T) {
	explicit := textFile("explicit.txt", "e")
	embedded := textFile("embedded.txt", "m")

	body, contentType, err := BuildBody(
		`mutation { upload }`,
		map[string]any{"files": []any{embedded}},
		[]File{explicit},
	)
	require.NoError(t, err)

	parts := parseBody(t, body, contentType)
	var ops operations
	require.NoError(t, json.Unmarshal([]byte(parts[0].content), &ops))

	// The caller's array survives with its file leaf nulled; no placeholder
	// array is synthesized over it.
	vars := ops.Variables.(map[string]any)
	assert.Equal(t, []any{nil}, vars["files"])

	var indexMap map[string][]string
	require.NoError(t, json.Unmarshal([]byte(parts[1].content), &indexMap))
	assert.Equal(t, []string{"variables.files.0"}, indexMap["0"])
	assert.Equal(t, []string{"variables.files.0"}, indexMap["1"])
}

func TestBuildBodyExplicitFilesOnly(t *testing.T) {
	body, contentType, err := BuildBody(
		`mutation { upload }`,
		nil,
		[]File{textFile("a.txt", "a"), textFile("b.txt", "b")},
	)
	require.NoError(t, err)

	parts := parseBody(t, body, contentType)
	var ops operations
	require.NoError(t, json.Unmarshal([]byte(parts[0].content), &ops))
	vars := ops.Variables.(map[string]any)
	assert.Equal(t, []any{nil, nil}, vars["files"])
}

func TestBuildBodyRejectsMalformedFiles(t *testing.T) {
	_, _, err := BuildBody(`mutation { upload }`, nil, []File{
		NewFile("", "text/plain", 1, strings.NewReader("x")),
	})
	assert.ErrorIs(t, err, errUnnamedFile)

	_, _, err = BuildBody(`mutation { upload }`, map[string]any{
		"f": NewFile("bad.bin", "application/octet-stream", -1, strings.NewReader("x")),
	}, nil)
	assert.ErrorIs(t, err, errNegativeSize)

	_, _, err = BuildBody(`mutation { upload }`, nil, []File{nil})
	assert.ErrorIs(t, err, errNilFile)
}
