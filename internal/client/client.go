// Package client is a typed wrapper around the courseware REST API.
//
// Every list call returns a non-nil slice, coercing anything that is not a
// JSON array to an empty one. Every mutation is checked for both a 2xx status
// and success=true in the response envelope.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/courseware/internal/model"
)

// DefaultTimeout bounds a single request, uploads included.
const DefaultTimeout = 30 * time.Second

// Client talks to one courseware server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithToken presets the bearer token, e.g. from the console config.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken replaces the bearer token. An empty token sends no header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends a JSON request and returns the decoded envelope. A non-2xx status
// or success=false comes back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *Client) send(req *http.Request) (*envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, &env, decodeErr, raw)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return nil, newAPIError(resp.StatusCode, &env, nil, raw)
	}
	return &env, nil
}

// decodeList turns a data field into a slice. Anything that is not a JSON
// array, or does not decode, becomes an empty slice.
func decodeList[T any](data json.RawMessage) []T {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil || items == nil {
		return []T{}
	}
	return items
}

// list fetches path and coerces the result. On error the slice is still
// non-nil and empty.
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	env, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return []T{}, err
	}
	return decodeList[T](env.Data), nil
}

// decodeInto fills dst from the envelope data.
func decodeInto(env *envelope, dst interface{}) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("decode response: empty data")
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// ─── Auth ───────────────────────────────────────────────────────────

// Login authenticates a staff account and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AdminLoginResponse, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/admin/login", model.AdminLoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	var out model.AdminLoginResponse
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Me returns the authenticated account. Token is empty in the result.
func (c *Client) Me(ctx context.Context) (*model.AdminLoginResponse, error) {
	env, err := c.do(ctx, http.MethodGet, "/auth/admin/me", nil)
	if err != nil {
		return nil, err
	}
	var out model.AdminLoginResponse
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the token server-side and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "/auth/admin/logout", nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// ─── Courses & Batches ──────────────────────────────────────────────

func (c *Client) ListCourses(ctx context.Context) ([]model.Course, error) {
	return list[model.Course](ctx, c, "/courses")
}

func (c *Client) CreateCourse(ctx context.Context, req model.CourseRequest) (*model.Course, error) {
	env, err := c.do(ctx, http.MethodPost, "/courses", req)
	if err != nil {
		return nil, err
	}
	var out model.Course
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCourse(ctx context.Context, courseID int64, req model.CourseRequest) (*model.Course, error) {
	env, err := c.do(ctx, http.MethodPut, "/courses/"+id(courseID), req)
	if err != nil {
		return nil, err
	}
	var out model.Course
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCourse(ctx context.Context, courseID int64) error {
	_, err := c.do(ctx, http.MethodDelete, "/courses/"+id(courseID), nil)
	return err
}

func (c *Client) ListBatches(ctx context.Context, courseID int64) ([]model.Batch, error) {
	return list[model.Batch](ctx, c, "/courses/"+id(courseID)+"/batches")
}

func (c *Client) CreateBatch(ctx context.Context, courseID int64, req model.CreateBatchRequest) (*model.Batch, error) {
	env, err := c.do(ctx, http.MethodPost, "/courses/"+id(courseID)+"/batches", req)
	if err != nil {
		return nil, err
	}
	var out model.Batch
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Folders & Files ────────────────────────────────────────────────

// ListFolders returns every folder of the batch at all depths.
func (c *Client) ListFolders(ctx context.Context, batchID int64) ([]model.Folder, error) {
	return list[model.Folder](ctx, c, "/batches/"+id(batchID)+"/folders")
}

func (c *Client) CreateFolder(ctx context.Context, req model.CreateFolderRequest) (*model.Folder, error) {
	env, err := c.do(ctx, http.MethodPost, "/folders", req)
	if err != nil {
		return nil, err
	}
	var out model.Folder
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RenameFolder(ctx context.Context, folderID int64, name string) error {
	_, err := c.do(ctx, http.MethodPatch, "/folders/"+id(folderID), model.RenameFolderRequest{Name: name})
	return err
}

func (c *Client) DeleteFolder(ctx context.Context, folderID int64) error {
	_, err := c.do(ctx, http.MethodDelete, "/folders/"+id(folderID), nil)
	return err
}

func (c *Client) ListFiles(ctx context.Context, folderID int64) ([]model.File, error) {
	return list[model.File](ctx, c, "/folders/"+id(folderID)+"/files")
}

// ─── Roster ─────────────────────────────────────────────────────────

func rosterPath(courseID, batchID int64) string {
	return "/courses/" + id(courseID) + "/batches/" + id(batchID) + "/students"
}

func (c *Client) ListMembers(ctx context.Context, courseID, batchID int64) ([]model.Student, error) {
	return list[model.Student](ctx, c, rosterPath(courseID, batchID))
}

// AddMember enrolls a student by email. An already enrolled student comes
// back as an *APIError for which IsAlreadyMember is true.
func (c *Client) AddMember(ctx context.Context, courseID, batchID int64, email string) (*model.Student, error) {
	env, err := c.do(ctx, http.MethodPost, rosterPath(courseID, batchID), model.AddMemberRequest{Email: email})
	if err != nil {
		return nil, err
	}
	var out model.Student
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveMember unenrolls a student. member is an email or a numeric id.
func (c *Client) RemoveMember(ctx context.Context, courseID, batchID int64, member string) error {
	_, err := c.do(ctx, http.MethodDelete, rosterPath(courseID, batchID)+"/"+url.PathEscape(member), nil)
	return err
}

// ListStudents searches the student directory. An empty q lists everyone.
func (c *Client) ListStudents(ctx context.Context, q string) ([]model.Student, error) {
	path := "/admin/students"
	if q != "" {
		path += "?" + url.Values{"q": {q}}.Encode()
	}
	return list[model.Student](ctx, c, path)
}

// Dashboard returns catalogue totals and the latest uploads. Requires login.
func (c *Client) Dashboard(ctx context.Context) (*model.DashboardSummary, error) {
	env, err := c.do(ctx, http.MethodGet, "/admin/dashboard", nil)
	if err != nil {
		return nil, err
	}
	out := model.DashboardSummary{RecentUploads: []model.RecentUpload{}}
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
