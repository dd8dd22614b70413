// Package client is a typed Go client for the welfare consultation API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/kje0316/persona-signal-welfare/internal/domain"
)

// APIError carries the status code and body of a failed API call.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "api request failed: " + e.Body
	}
	return fmt.Sprintf("api request failed: status %d: %s", e.Status, e.Body)
}

// Client calls the consultation API at a fixed base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL, e.g. "http://localhost:8000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// request performs one JSON API call and decodes the response into out.
func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Body: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ChatReply is one exchange's server reply.
type ChatReply struct {
	Response        string    `json:"response"`
	SessionID       string    `json:"session_id"`
	Timestamp       time.Time `json:"timestamp"`
	Sources         []string  `json:"sources"`
	ShowReportLink  bool      `json:"show_report_link"`
	ShowPDFDownload bool      `json:"show_pdf_download"`
}

// SendMessage posts one chat message on a session. An empty sessionID
// lets the server issue a fresh session.
func (c *Client) SendMessage(ctx context.Context, sessionID, message string) (*ChatReply, error) {
	var reply ChatReply
	err := c.request(ctx, http.MethodPost, "/chat", map[string]string{
		"message":    message,
		"session_id": sessionID,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// CreateSession asks the server for a new session, optionally seeded with
// a completed profile.
func (c *Client) CreateSession(ctx context.Context, profile *domain.Profile) (*domain.ConsultationSession, error) {
	var sess domain.ConsultationSession
	err := c.request(ctx, http.MethodPost, "/chat/session", map[string]any{"profile": profile}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SessionData fetches a session's state.
func (c *Client) SessionData(ctx context.Context, sessionID string) (*domain.ConsultationSession, error) {
	var sess domain.ConsultationSession
	if err := c.request(ctx, http.MethodGet, "/chat/session/"+url.PathEscape(sessionID), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession discards a session and its conversation.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.request(ctx, http.MethodDelete, "/chat/session/"+url.PathEscape(sessionID), nil, nil)
}

// ChatHistoryResult is the ordered conversation of one session.
type ChatHistoryResult struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
	Total     int              `json:"total"`
}

// ChatHistory fetches a session's conversation.
func (c *Client) ChatHistory(ctx context.Context, sessionID string) (*ChatHistoryResult, error) {
	var result ChatHistoryResult
	if err := c.request(ctx, http.MethodGet, "/chat/history/"+url.PathEscape(sessionID), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health fetches the service health summary.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var health map[string]any
	if err := c.request(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return health, nil
}

// WelfareServicesResult is the paged catalog search response.
type WelfareServicesResult struct {
	Total          int                      `json:"total"`
	Services       []*domain.WelfareService `json:"services"`
	FiltersApplied map[string]any           `json:"filters_applied"`
}

// WelfareServices searches the catalog with profile-shaped parameters.
func (c *Client) WelfareServices(ctx context.Context, params map[string]string) (*WelfareServicesResult, error) {
	q := url.Values{}
	for key, value := range params {
		if value != "" {
			q.Set(key, value)
		}
	}
	path := "/welfare/services"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result WelfareServicesResult
	if err := c.request(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PersonaResult is the persona listing and generation response.
type PersonaResult struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Personas []map[string]any `json:"personas"`
	Metadata map[string]any   `json:"metadata"`
}

// FetchPersonas fetches the most recently generated persona set.
func (c *Client) FetchPersonas(ctx context.Context) (*PersonaResult, error) {
	var result PersonaResult
	if err := c.request(ctx, http.MethodGet, "/personas", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GeneratePersonas triggers persona generation from an uploaded dataset.
// An empty file id generates the default set; count caps the personas
// (0 means the server default).
func (c *Client) GeneratePersonas(ctx context.Context, structuredFileID string, count int) (*PersonaResult, error) {
	body := map[string]any{}
	if structuredFileID != "" {
		body["structured_file_id"] = structuredFileID
	}
	if count > 0 {
		body["count"] = count
	}

	var result PersonaResult
	if err := c.request(ctx, http.MethodPost, "/personas/generate", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadResult describes a stored structured-data upload.
type UploadResult struct {
	Success  bool   `json:"success"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	FilePath string `json:"file_path"`
}

// UploadStructuredData uploads one tabular dataset.
func (c *Client) UploadStructuredData(ctx context.Context, filename string, data io.Reader) (*UploadResult, error) {
	var result UploadResult
	if err := c.upload(ctx, "/upload/structured-data", "file", filename, data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// KnowledgeUploadResult describes a stored knowledge-file batch.
type KnowledgeUploadResult struct {
	Success bool   `json:"success"`
	BatchID string `json:"batch_id"`
	Count   int    `json:"count"`
}

// UploadKnowledgeFiles uploads a batch of knowledge documents keyed by
// filename.
func (c *Client) UploadKnowledgeFiles(ctx context.Context, files map[string]io.Reader) (*KnowledgeUploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, src := range files {
		part, err := mw.CreateFormFile("files", filepath.Base(name))
		if err != nil {
			return nil, fmt.Errorf("build multipart form: %w", err)
		}
		if _, err := io.Copy(part, src); err != nil {
			return nil, fmt.Errorf("copy %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart form: %w", err)
	}

	var result KnowledgeUploadResult
	if err := c.postMultipart(ctx, "/upload/knowledge-files", mw.FormDataContentType(), &buf, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartResult acknowledges a launched augmentation task.
type StartResult struct {
	Success      bool   `json:"success"`
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	WebsocketURL string `json:"websocket_url"`
}

// StartAugmentation launches the pipeline on an uploaded dataset.
func (c *Client) StartAugmentation(ctx context.Context, structuredFileID, knowledgeBatchID string, cfg map[string]any) (*StartResult, error) {
	var result StartResult
	err := c.request(ctx, http.MethodPost, "/augmentation/start", map[string]any{
		"structured_file_id": structuredFileID,
		"knowledge_batch_id": knowledgeBatchID,
		"config":             cfg,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AugmentationStatus fetches one task's progress snapshot.
func (c *Client) AugmentationStatus(ctx context.Context, taskID string) (map[string]any, error) {
	var status map[string]any
	if err := c.request(ctx, http.MethodGet, "/augmentation/status/"+url.PathEscape(taskID), nil, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// CancelAugmentation stops a running task.
func (c *Client) CancelAugmentation(ctx context.Context, taskID string) error {
	return c.request(ctx, http.MethodDelete, "/augmentation/cancel/"+url.PathEscape(taskID), nil, nil)
}

// DownloadResult streams one output file of a completed task. The caller
// must close the returned reader.
func (c *Client) DownloadResult(ctx context.Context, taskID, fileType string) (io.ReadCloser, error) {
	path := fmt.Sprintf("%s/api/v1/augmentation/download/%s/%s", c.baseURL, url.PathEscape(taskID), url.PathEscape(fileType))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Body: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return resp.Body, nil
}

func (c *Client) upload(ctx context.Context, path, field, filename string, data io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filepath.Base(filename))
	if err != nil {
		return fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finish multipart form: %w", err)
	}
	return c.postMultipart(ctx, path, mw.FormDataContentType(), &buf, out)
}

func (c *Client) postMultipart(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1"+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Body: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
