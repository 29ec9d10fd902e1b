package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/mohamedaboabdallah/Q-A-using-RAG/internal/logging"
)

// TokenSource supplies the current session credential. The session manager
// implements it; the gateway never stores a token of its own.
type TokenSource interface {
	Token() (string, bool)
}

// Client is the sole egress point for backend calls. It attaches the
// credential, classifies failures into ErrorKind, and signals authorization
// loss through the OnUnauthorized hook before returning the error, so every
// concurrent caller observes a cleared session.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	log            *logging.Logger
}

func NewClient(baseURL string, requestTimeout, uploadTimeout time.Duration, tokens TokenSource, log *logging.Logger) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	if uploadTimeout <= 0 {
		uploadTimeout = 30 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		tokens:         tokens,
		requestTimeout: requestTimeout,
		uploadTimeout:  uploadTimeout,
		log:            log,
	}
}

// SetOnUnauthorized registers the global session-invalidation hook. It runs
// before any Unauthorized error is returned to a caller.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Credentials is the result of a successful login or registration.
type Credentials struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// DocumentRecord mirrors one confirmed backend document.
type DocumentRecord struct {
	ID         int64
	Filename   string
	UploadedAt time.Time
}

// UploadReceipt is the backend's acknowledgement of a processed upload.
type UploadReceipt struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

func (c *Client) Login(ctx context.Context, username, password string) (Credentials, error) {
	return c.authenticate(ctx, "/api/login", username, password)
}

func (c *Client) Register(ctx context.Context, username, password string) (Credentials, error) {
	return c.authenticate(ctx, "/api/register", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (Credentials, error) {
	payload := map[string]string{"username": username, "password": password}
	body, err := c.doJSON(ctx, http.MethodPost, path, payload, c.requestTimeout)
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return Credentials{}, &Error{Kind: KindServer, Message: "malformed response"}
	}
	if creds.Token == "" {
		return Credentials{}, &Error{Kind: KindServer, Message: "response missing token"}
	}
	return creds, nil
}

// ListFiles fetches the confirmed documents of the authenticated user.
func (c *Client) ListFiles(ctx context.Context) ([]DocumentRecord, error) {
	body, err := c.doJSON(ctx, http.MethodGet, "/api/files", nil, c.requestTimeout)
	if err != nil {
		return nil, err
	}
	var wire struct {
		Files []struct {
			ID         int64  `json:"id"`
			Filename   string `json:"filename"`
			UploadedAt string `json:"uploaded_at"`
		} `json:"files"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &Error{Kind: KindServer, Message: "malformed file list"}
	}
	records := make([]DocumentRecord, 0, len(wire.Files))
	for _, f := range wire.Files {
		records = append(records, DocumentRecord{
			ID:         f.ID,
			Filename:   f.Filename,
			UploadedAt: parseUploadedAt(f.UploadedAt),
		})
	}
	return records, nil
}

// Upload submits one file as a multipart request under the "document" field.
// progress, when non-nil, receives the monotonically non-decreasing ratio of
// bytes sent to total bytes.
func (c *Client) Upload(ctx context.Context, fileName string, r io.Reader, progress func(float64)) (UploadReceipt, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("document", fileName)
	if err != nil {
		return UploadReceipt{}, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadReceipt{}, fmt.Errorf("read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadReceipt{}, fmt.Errorf("finish multipart: %w", err)
	}

	total := int64(buf.Len())
	body, err := c.do(ctx, http.MethodPost, "/api/upload",
		newProgressReader(&buf, total, progress), mw.FormDataContentType(), c.uploadTimeout)
	if err != nil {
		return UploadReceipt{}, err
	}
	var receipt UploadReceipt
	if err := json.Unmarshal(body, &receipt); err != nil {
		return UploadReceipt{}, &Error{Kind: KindServer, Message: "malformed upload response"}
	}
	return receipt, nil
}

// Query sends one conversational turn. The backend answers with either a
// direct reply or retrieval matches; both shapes are normalized into one
// reply string here so the conversation log never branches on wire format.
func (c *Client) Query(ctx context.Context, message string) (string, error) {
	body, err := c.doJSON(ctx, http.MethodPost, "/api/chat", map[string]string{"query": message}, c.requestTimeout)
	if err != nil {
		return "", err
	}
	var wire struct {
		Reply   string `json:"reply"`
		Matches []struct {
			Text string `json:"text"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return "", &Error{Kind: KindServer, Message: "malformed chat response"}
	}
	if strings.TrimSpace(wire.Reply) != "" {
		return wire.Reply, nil
	}
	texts := make([]string, 0, len(wire.Matches))
	for _, m := range wire.Matches {
		if strings.TrimSpace(m.Text) != "" {
			texts = append(texts, m.Text)
		}
	}
	if len(texts) == 0 {
		return "", &Error{Kind: KindServer, Message: "empty reply from server"}
	}
	return strings.Join(texts, "\n\n"), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, timeout time.Duration) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, body, "application/json", timeout)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := classifyTransport(err)
		c.log.Error("request failed", map[string]interface{}{
			"path": path, "kind": apiErr.Kind.String(),
		})
		return nil, apiErr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetworkUnavailable, Message: "truncated response"}
	}

	if resp.StatusCode >= 300 {
		apiErr := classifyStatus(resp.StatusCode, decodeErrorBody(respBody))
		c.log.Error("request rejected", map[string]interface{}{
			"path": path, "status": resp.StatusCode, "kind": apiErr.Kind.String(),
		})
		if apiErr.Kind == KindUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, apiErr
	}
	return respBody, nil
}

// decodeErrorBody defensively pulls the text out of a {"error": ...} payload.
// Anything malformed comes back empty and the caller falls back to a generic
// message.
func decodeErrorBody(body []byte) string {
	var wire struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return ""
	}
	return strings.TrimSpace(wire.Error)
}

// parseUploadedAt accepts the timestamp shapes the backend has been seen to
// emit: RFC 3339 and bare ISO 8601 without a zone.
func parseUploadedAt(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
