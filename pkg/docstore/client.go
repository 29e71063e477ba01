package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var (
	errUploadURLRequired = errors.New("docstore upload url is required")
	errTokenRequired     = errors.New("docstore token is required")
)

// Client uploads generated documents to the remote document store.
type Client struct {
	httpClient *http.Client
	uploadURL  string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the document store client from configuration.
func NewClient(cfg config.DocStoreConfig, opts ...Option) (*Client, error) {
	uploadURL := strings.TrimSpace(cfg.UploadURL)
	if uploadURL == "" {
		return nil, errUploadURLRequired
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errTokenRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		uploadURL:  uploadURL,
		token:      token,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Upload sends the file into the named client folder and returns the public
// short download URL.
func (c *Client) Upload(ctx context.Context, folderName, fileName string, content []byte) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "docstore client not configured")
	}
	if strings.TrimSpace(folderName) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "folder name is required")
	}
	if strings.TrimSpace(fileName) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	if len(content) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file content is empty")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("folder_name", folderName); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write folder field")
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create file part")
	}
	if _, err := part.Write(content); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write file part")
	}
	if err := writer.Close(); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize multipart body")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build upload request")
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute upload request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "upload request failed")
	}

	var apiResp struct {
		OK          bool   `json:"ok"`
		DownloadURL string `json:"download_url"`
		Message     string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode upload response")
	}
	if !apiResp.OK || apiResp.DownloadURL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("upload rejected: %s", apiResp.Message))
	}

	return apiResp.DownloadURL, nil
}
