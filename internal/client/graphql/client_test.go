package graphql

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gqlwire/internal/shared/upload"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoPlainJSON(t *testing.T) {
	var (
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"data":{"viewer":{"name":"ada"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Do(context.Background(), Request{
		Query:     `query($id: ID!) { viewer(id: $id) { name } }`,
		Variables: map[string]any{"id": "7"},
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t,
		`{"query":"query($id: ID!) { viewer(id: $id) { name } }","variables":{"id":"7"}}`,
		string(gotBody))

	var out struct {
		Viewer struct {
			Name string `json:"name"`
		} `json:"viewer"`
	}
	require.NoError(t, resp.DecodeData(&out))
	assert.Equal(t, "ada", out.Viewer.Name)
}

func TestDoHeaderPrecedence(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL,
		WithAPIKey("secret"),
		WithHeader("X-Tenant", "default"),
		WithHeader("X-Trace", "client"),
	)
	_, err := c.Do(context.Background(), Request{Query: `{ ok }`},
		WithRequestHeader("X-Trace", "call"),
	)
	require.NoError(t, err)

	assert.Equal(t, "secret", got.Get(APIKeyHeader))
	assert.Equal(t, "default", got.Get("X-Tenant"))
	// The per-call layer overrides the client default.
	assert.Equal(t, "call", got.Get("X-Trace"))
}

func TestDoMultipartWhenFilesPresent(t *testing.T) {
	type captured struct {
		operations string
		indexMap   string
		filenames  map[string]string
		contents   map[string]string
	}
	var got captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got.operations = r.FormValue(upload.FieldOperations)
		got.indexMap = r.FormValue(upload.FieldMap)
		got.filenames = map[string]string{}
		got.contents = map[string]string{}
		for field, headers := range r.MultipartForm.File {
			f, err := headers[0].Open()
			require.NoError(t, err)
			content, _ := io.ReadAll(f)
			f.Close()
			got.filenames[field] = headers[0].Filename
			got.contents[field] = string(content)
		}
		w.Write([]byte(`{"data":{"upload":true}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Do(context.Background(), Request{
		Query: `mutation($files: [Upload!]!, $avatar: Upload!) { upload }`,
		Variables: map[string]any{
			"avatar": upload.NewFile("avatar.png", "image/png", 3, strings.NewReader("png")),
		},
		Files: []upload.File{
			upload.NewFile("a.txt", "text/plain", 1, strings.NewReader("a")),
		},
	})
	require.NoError(t, err)
	require.Empty(t, resp.Errors)

	var ops struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	require.NoError(t, json.Unmarshal([]byte(got.operations), &ops))
	assert.Equal(t, []any{nil}, ops.Variables["files"])
	assert.Nil(t, ops.Variables["avatar"])

	assert.JSONEq(t, `{"0":["variables.files.0"],"1":["variables.avatar"]}`, got.indexMap)
	assert.Equal(t, map[string]string{"0": "a.txt", "1": "avatar.png"}, got.filenames)
	assert.Equal(t, map[string]string{"0": "a", "1": "png"}, got.contents)
}

func TestDoSkipsMultipartWithoutFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Do(context.Background(), Request{
		Query:     `{ ok }`,
		Variables: map[string]any{"a": 1, "b": []any{1, 2, 3}},
	})
	require.NoError(t, err)
}

func TestDoRejectsMalformedFileBeforeSending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not reach the network")
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Do(context.Background(), Request{
		Query: `mutation { upload }`,
		Files: []upload.File{upload.NewFile("", "text/plain", 1, strings.NewReader("x"))},
	})
	assert.Error(t, err)
}

func TestDoNormalizesHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", 500, `{"error":"database down"}`, "database down"},
		{"message field", 422, `{"message":"bad variables"}`, "bad variables"},
		{"nested error message", 500, `{"error":{"message":"deep failure"}}`, "deep failure"},
		{"raw text body", 502, `upstream exploded`, "upstream exploded"},
		{"empty body", 503, ``, "503 Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL).Do(context.Background(), Request{Query: `{ ok }`})
			require.NoError(t, err)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, tt.want, resp.Errors[0].Message)
		})
	}
}

func TestDoNormalizesNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	resp, err := NewClient(srv.URL).Do(context.Background(), Request{Query: `{ ok }`})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Errors)
}

func TestDecodeDataReturnsServerErrors(t *testing.T) {
	resp := &Response{Errors: ErrorList{{Message: "nope"}}}
	var out map[string]any
	err := resp.DecodeData(&out)
	assert.EqualError(t, err, "nope")
}
