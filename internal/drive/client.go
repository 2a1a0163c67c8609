// Package drive talks to the Google Drive v3 API to keep the tracker's
// single JSON document in the user's private application-data folder.
//
// The client holds no credentials. Every call is scoped by the bearer token
// it is given.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonathan/job-tracker/internal/types"
	"golang.org/x/oauth2"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// AppDataFolder is the Drive space hidden from the user's file listing.
const AppDataFolder = "appDataFolder"

const (
	jsonMimeType   = "application/json"
	defaultTimeout = 30 * time.Second
)

// Config holds transport settings for the client.
type Config struct {
	// Endpoint overrides the Drive API base URL. Empty uses Google's.
	Endpoint string
	// HTTPClient is the base client the bearer transport wraps.
	HTTPClient *http.Client
}

// Client performs find, read, create and update calls on Drive files.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Drive client. A nil config uses the defaults.
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}
	c := &Client{
		endpoint:   config.Endpoint,
		httpClient: config.HTTPClient,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

// bearerClient wraps the base client so every request carries token.
func (c *Client) bearerClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

func (c *Client) service(ctx context.Context, token string) (*drivev3.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(c.bearerClient(ctx, token))}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return drivev3.NewService(ctx, opts...)
}

// FindDocument returns the first file in the app-data folder whose name is
// exactly filename, or nil when there is none.
func (c *Client) FindDocument(ctx context.Context, token, filename string) (*types.FileInfo, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, &RemoteError{Op: "find", Cause: err}
	}

	list, err := svc.Files.List().
		Q(nameQuery(filename)).
		Spaces(AppDataFolder).
		Fields("files(id,name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &RemoteError{Op: "find", StatusCode: statusOf(err), Cause: err}
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return &types.FileInfo{ID: list.Files[0].Id, Name: list.Files[0].Name}, nil
}

// ReadDocument fetches the raw JSON content of a file.
func (c *Client) ReadDocument(ctx context.Context, token, fileID string) (json.RawMessage, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, &RemoteError{Op: "read", Cause: err}
	}

	resp, err := svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, remoteError("read", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Op: "read", StatusCode: resp.StatusCode, Cause: err}
	}
	if !json.Valid(body) {
		return nil, &RemoteError{Op: "read", StatusCode: resp.StatusCode, Cause: errors.New("content is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

// CreateDocument creates filename in the app-data folder with apps as its
// content and returns the assigned id.
func (c *Client) CreateDocument(ctx context.Context, token, filename string, apps []types.Application) (*types.FileInfo, error) {
	content, err := encode(apps)
	if err != nil {
		return nil, &RemoteError{Op: "create", Cause: err}
	}
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, &RemoteError{Op: "create", Cause: err}
	}

	meta := &drivev3.File{
		Name:     filename,
		Parents:  []string{AppDataFolder},
		MimeType: jsonMimeType,
	}
	file, err := svc.Files.Create(meta).
		Media(bytes.NewReader(content), googleapi.ContentType(jsonMimeType)).
		Fields("id,name").
		Context(ctx).
		Do()
	if err != nil {
		return nil, &RemoteError{Op: "create", StatusCode: statusOf(err), Cause: err}
	}

	name := file.Name
	if name == "" {
		name = filename
	}
	return &types.FileInfo{ID: file.Id, Name: name}, nil
}

// UpdateDocument replaces the content of an existing file with a simple
// media upload: PATCH upload/drive/v3/files/<id>?uploadType=media.
func (c *Client) UpdateDocument(ctx context.Context, token, fileID string, apps []types.Application) error {
	content, err := encode(apps)
	if err != nil {
		return &RemoteError{Op: "update", Cause: err}
	}
	svc, err := c.service(ctx, token)
	if err != nil {
		return &RemoteError{Op: "update", Cause: err}
	}

	// The SDK only sends multipart or resumable uploads, so the media
	// upload is issued directly against the same base path.
	target := googleapi.ResolveRelative(svc.BasePath, "/upload/drive/v3/files/"+url.PathEscape(fileID)) + "?uploadType=media"
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, target, bytes.NewReader(content))
	if err != nil {
		return &RemoteError{Op: "update", Cause: err}
	}
	req.Header.Set("Content-Type", jsonMimeType)

	resp, err := c.bearerClient(ctx, token).Do(req)
	if err != nil {
		return &RemoteError{Op: "update", Cause: err}
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return remoteError("update", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// remoteError maps a failed read or update, singling out 401.
func remoteError(op string, err error) error {
	status := statusOf(err)
	if status == http.StatusUnauthorized {
		return &RemoteError{Op: op, StatusCode: status, Cause: ErrUnauthorized}
	}
	return &RemoteError{Op: op, StatusCode: status, Cause: err}
}

func statusOf(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// nameQuery builds an exact-name Drive search expression.
func nameQuery(filename string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(filename)
	return fmt.Sprintf("name='%s'", escaped)
}

func encode(apps []types.Application) ([]byte, error) {
	if apps == nil {
		apps = []types.Application{}
	}
	return json.Marshal(apps)
}
