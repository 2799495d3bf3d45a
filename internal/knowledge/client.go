package knowledge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/rs/zerolog"

	kberrors "github.com/coral-mesh/kbchat/internal/errors"
	"github.com/coral-mesh/kbchat/pkg/version"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 512

// sniffLen is the header size filetype needs to recognise a format.
const sniffLen = 261

// Client talks to the Knowledge Service over HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	uploadPath string
	userAgent  string
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUploadPath selects the ingestion endpoint (PathUpload or PathAddKnowledge).
func WithUploadPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.uploadPath = path
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets a per-request timeout. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid service url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid service url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{},
		uploadPath: PathUpload,
		userAgent:  "kbchat/" + version.Version,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// UploadPath returns the ingestion endpoint in use.
func (c *Client) UploadPath() string {
	return c.uploadPath
}

// Ask sends a question and returns the service's answer.
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	body, err := json.Marshal(AskRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("ask: failed to encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, PathAsk, nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var answer Answer
	if err := c.do(req, "ask", &answer); err != nil {
		return nil, err
	}
	if answer.Error != "" {
		return nil, &ServiceError{Op: "ask", Message: answer.Error}
	}
	return &answer, nil
}

// Upload sends a document to the ingestion endpoint as multipart field "file".
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*Status, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, _ := br.Peek(sniffLen)
	contentType := detectContentType(name, head)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreatePart(filePartHeader(filepath.Base(name), contentType))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, br); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, c.uploadPath, nil, pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug().
		Str("name", name).
		Str("content_type", contentType).
		Str("path", c.uploadPath).
		Msg("Uploading document")

	var status Status
	err = c.do(req, "upload", &status)
	// Unblock the writer goroutine if the request ended before the body was consumed.
	_ = pr.Close()
	if err != nil {
		return nil, err
	}
	return checkStatus("upload", &status)
}

// ViewKnowledge lists stored knowledge, optionally filtered by topic.
func (c *Client) ViewKnowledge(ctx context.Context, topic string) ([]Entry, error) {
	var query url.Values
	if topic != "" {
		query = url.Values{"topic": []string{topic}}
	}

	req, err := c.newRequest(ctx, http.MethodGet, PathViewKnowledge, query, nil)
	if err != nil {
		return nil, err
	}

	var listing Listing
	if err := c.do(req, "view knowledge", &listing); err != nil {
		return nil, err
	}
	if listing.Error != "" {
		return nil, &ServiceError{Op: "view knowledge", Message: listing.Error}
	}
	if listing.Knowledge == nil {
		return nil, fmt.Errorf("view knowledge: %w: knowledge", ErrMissingField)
	}
	return listing.Knowledge, nil
}

// Reset wipes the service's knowledge base.
func (c *Client) Reset(ctx context.Context) (*Status, error) {
	req, err := c.newRequest(ctx, http.MethodPost, PathResetKnowledge, nil, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := c.do(req, "reset knowledge", &status); err != nil {
		return nil, err
	}
	return checkStatus("reset knowledge", &status)
}

// Ping calls the service root and returns its banner message.
func (c *Client) Ping(ctx context.Context) (*Status, error) {
	req, err := c.newRequest(ctx, http.MethodGet, PathRoot, nil, nil)
	if err != nil {
		return nil, err
	}

	var status Status
	if err := c.do(req, "ping", &status); err != nil {
		return nil, err
	}
	return checkStatus("ping", &status)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// do executes req and decodes a JSON body into out.
func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer kberrors.DeferClose(c.logger, resp.Body, "failed to close response body")

	c.logger.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Knowledge service call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

func checkStatus(op string, status *Status) (*Status, error) {
	if status.Error != "" {
		return nil, &ServiceError{Op: op, Message: status.Error}
	}
	if status.Message == "" {
		return nil, fmt.Errorf("%s: %w: message", op, ErrMissingField)
	}
	return status, nil
}

func detectContentType(name string, head []byte) string {
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if strings.EqualFold(filepath.Ext(name), ".txt") {
		return "text/plain"
	}
	return "application/octet-stream"
}

func filePartHeader(filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
