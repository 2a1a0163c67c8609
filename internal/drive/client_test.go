package drive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/jonathan/job-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodToken = "good-token"

// fakeDrive is an in-memory stand-in for the Drive files API.
type fakeDrive struct {
	mu       sync.Mutex
	files    map[string]fakeFile
	nextID   int
	lastQ    string
	lastSp   string
	lastMeta map[string]any
	failWith int // forces every call to this status when non-zero
}

type fakeFile struct {
	name    string
	content []byte
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{files: make(map[string]fakeFile)}
}

func (f *fakeDrive) put(id, name, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[id] = fakeFile{name: name, content: []byte(content)}
}

func (f *fakeDrive) content(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.files[id].content)
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+goodToken {
		writeAPIError(w, http.StatusUnauthorized, "Invalid Credentials")
		return
	}
	if f.failWith != 0 {
		writeAPIError(w, f.failWith, "forced failure")
		return
	}

	isCollection := strings.HasSuffix(r.URL.Path, "/files")
	id := path.Base(r.URL.Path)

	switch {
	case r.Method == http.MethodGet && isCollection:
		f.lastQ = r.URL.Query().Get("q")
		f.lastSp = r.URL.Query().Get("spaces")
		type entry struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		matches := []entry{}
		for fid, file := range f.files {
			if f.lastQ == fmt.Sprintf("name='%s'", file.name) {
				matches = append(matches, entry{ID: fid, Name: file.name})
			}
		}
		writeJSON(w, map[string]any{"files": matches})

	case r.Method == http.MethodGet:
		file, ok := f.files[id]
		if !ok {
			writeAPIError(w, http.StatusNotFound, "File not found")
			return
		}
		_, _ = w.Write(file.content)

	case r.Method == http.MethodPost && isCollection:
		meta, content := readUpload(r)
		f.lastMeta = meta
		f.nextID++
		newID := fmt.Sprintf("file-%d", f.nextID)
		name, _ := meta["name"].(string)
		f.files[newID] = fakeFile{name: name, content: content}
		writeJSON(w, map[string]any{"id": newID, "name": name})

	case r.Method == http.MethodPatch:
		if r.URL.Query().Get("uploadType") != "media" ||
			!strings.HasPrefix(r.URL.Path, "/upload/drive/v3/files/") ||
			r.Header.Get("Content-Type") != "application/json" {
			writeAPIError(w, http.StatusBadRequest, "update must be a media upload")
			return
		}
		file, ok := f.files[id]
		if !ok {
			writeAPIError(w, http.StatusNotFound, "File not found")
			return
		}
		content, _ := io.ReadAll(r.Body)
		file.content = content
		f.files[id] = file
		writeJSON(w, map[string]any{"id": id})

	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

// readUpload splits a multipart upload into metadata and media, or returns
// the whole body as media for a simple upload.
func readUpload(r *http.Request) (map[string]any, []byte) {
	meta := map[string]any{}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		body, _ := io.ReadAll(r.Body)
		return meta, body
	}

	reader := multipart.NewReader(r.Body, params["boundary"])
	var parts [][]byte
	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}
		data, _ := io.ReadAll(part)
		parts = append(parts, data)
	}
	if len(parts) == 0 {
		return meta, nil
	}
	if len(parts) > 1 {
		_ = json.Unmarshal(parts[0], &meta)
	}
	return meta, parts[len(parts)-1]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
}

func setupClient(t *testing.T) (*Client, *fakeDrive) {
	t.Helper()
	fake := newFakeDrive()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client := NewClient(&Config{Endpoint: server.URL + "/", HTTPClient: server.Client()})
	return client, fake
}

func TestFindDocument(t *testing.T) {
	ctx := t.Context()
	client, fake := setupClient(t)
	fake.put("abc", "job-tracker.json", `[]`)
	fake.put("other", "notes.json", `[]`)

	info, err := client.FindDocument(ctx, goodToken, "job-tracker.json")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "abc", info.ID)
	assert.Equal(t, "job-tracker.json", info.Name)
	assert.Equal(t, "name='job-tracker.json'", fake.lastQ)
	assert.Equal(t, AppDataFolder, fake.lastSp)
}

func TestFindDocument_NoMatch(t *testing.T) {
	client, _ := setupClient(t)

	info, err := client.FindDocument(t.Context(), goodToken, "job-tracker.json")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestFindDocument_FailureCarriesStatus(t *testing.T) {
	client, _ := setupClient(t)

	_, err := client.FindDocument(t.Context(), "expired", "job-tracker.json")
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "find", remoteErr.Op)
	assert.Equal(t, http.StatusUnauthorized, remoteErr.StatusCode)
	assert.False(t, IsUnauthorized(err), "find reports a plain remote error")
}

func TestReadDocument(t *testing.T) {
	client, fake := setupClient(t)
	fake.put("abc", "job-tracker.json", `[{"id":"a","company":"A","currentStage":"Applied"}]`)

	raw, err := client.ReadDocument(t.Context(), goodToken, "abc")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","company":"A","currentStage":"Applied"}]`, string(raw))
}

func TestReadDocument_Errors(t *testing.T) {
	tests := []struct {
		name         string
		token        string
		fileID       string
		wantStatus   int
		unauthorized bool
	}{
		{"expired token", "expired", "abc", http.StatusUnauthorized, true},
		{"missing file", goodToken, "gone", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := setupClient(t)
			fake.put("abc", "job-tracker.json", `[]`)

			_, err := client.ReadDocument(t.Context(), tt.token, tt.fileID)
			require.Error(t, err)

			var remoteErr *RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, "read", remoteErr.Op)
			assert.Equal(t, tt.wantStatus, remoteErr.StatusCode)
			assert.Equal(t, tt.unauthorized, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestReadDocument_NotJSON(t *testing.T) {
	client, fake := setupClient(t)
	fake.put("abc", "job-tracker.json", `<html>`)

	_, err := client.ReadDocument(t.Context(), goodToken, "abc")
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
}

func TestCreateDocument(t *testing.T) {
	client, fake := setupClient(t)
	apps := []types.Application{{ID: "a", Company: "A", CurrentStage: types.StageApplied}}

	info, err := client.CreateDocument(t.Context(), goodToken, "job-tracker.json", apps)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "job-tracker.json", info.Name)

	assert.Equal(t, "job-tracker.json", fake.lastMeta["name"])
	assert.Equal(t, []any{AppDataFolder}, fake.lastMeta["parents"])
	assert.Equal(t, "application/json", fake.lastMeta["mimeType"])
	assert.JSONEq(t, `[{"id":"a","company":"A","currentStage":"Applied"}]`, fake.content(info.ID))
}

func TestCreateDocument_EmptyContent(t *testing.T) {
	client, fake := setupClient(t)

	info, err := client.CreateDocument(t.Context(), goodToken, "job-tracker.json", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, fake.content(info.ID))
}

func TestCreateDocument_Failure(t *testing.T) {
	client, fake := setupClient(t)
	fake.failWith = http.StatusForbidden

	_, err := client.CreateDocument(t.Context(), goodToken, "job-tracker.json", nil)
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "create", remoteErr.Op)
	assert.Equal(t, http.StatusForbidden, remoteErr.StatusCode)
}

func TestUpdateDocument(t *testing.T) {
	client, fake := setupClient(t)
	fake.put("abc", "job-tracker.json", `[]`)
	apps := []types.Application{{ID: "b", Company: "B", CurrentStage: types.StageOA}}

	require.NoError(t, client.UpdateDocument(t.Context(), goodToken, "abc", apps))
	assert.JSONEq(t, `[{"id":"b","company":"B","currentStage":"OA"}]`, fake.content("abc"))
}

func TestUpdateDocument_SendsMediaUpload(t *testing.T) {
	var method, path, uploadType, contentType, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		uploadType = r.URL.Query().Get("uploadType")
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		writeJSON(w, map[string]any{"id": "abc"})
	}))
	defer server.Close()

	client := NewClient(&Config{Endpoint: server.URL + "/", HTTPClient: server.Client()})
	apps := []types.Application{{ID: "a", Company: "A", CurrentStage: types.StageApplied}}
	require.NoError(t, client.UpdateDocument(t.Context(), goodToken, "abc", apps))

	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/upload/drive/v3/files/abc", path)
	assert.Equal(t, "media", uploadType)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `[{"id":"a","company":"A","currentStage":"Applied"}]`, body)
}

func TestUpdateDocument_Errors(t *testing.T) {
	client, fake := setupClient(t)
	fake.put("abc", "job-tracker.json", `[]`)

	err := client.UpdateDocument(t.Context(), "expired", "abc", nil)
	assert.True(t, IsUnauthorized(err))

	err = client.UpdateDocument(t.Context(), goodToken, "missing", nil)
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
	assert.JSONEq(t, `[]`, fake.content("abc"))
}

func TestTransportFailureHasZeroStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/"
	server.Close()

	client := NewClient(&Config{Endpoint: endpoint})
	_, err := client.ReadDocument(t.Context(), goodToken, "abc")
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 0, remoteErr.StatusCode)
	assert.False(t, IsUnauthorized(err))
}

func TestNameQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"job-tracker.json", `name='job-tracker.json'`},
		{"jon's tracker.json", `name='jon\'s tracker.json'`},
		{`back\slash`, `name='back\\slash'`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nameQuery(tt.in))
	}
}

func TestRemoteError_Error(t *testing.T) {
	err := &RemoteError{Op: "update", StatusCode: 500, Cause: errors.New("backend error")}
	assert.Equal(t, "drive update failed with status 500: backend error", err.Error())

	err = &RemoteError{Op: "find", Cause: errors.New("dial tcp: refused")}
	assert.Equal(t, "drive find failed: dial tcp: refused", err.Error())
}
