package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTransport wraps any failure of the storage-node API.
var ErrTransport = errors.New("transport: storage node error")

// HTTPAdapter implements Adapter against a storage node's HTTP API:
// POST /api/upload (multipart), DELETE /api/files/{name}, GET /api/files/{name}.
type HTTPAdapter struct {
	baseURL string
	client  *http.Client
}

func NewHTTPAdapter(baseURL string, timeout time.Duration) *HTTPAdapter {
	return &HTTPAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *HTTPAdapter) Upload(ctx context.Context, fileName string, data []byte, authToken string) (UploadResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if _, err := part.Write(data); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/upload", body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, fmt.Errorf("%w: upload returned status %d", ErrTransport, resp.StatusCode)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return UploadResult{}, fmt.Errorf("%w: decode upload response: %v", ErrTransport, err)
	}
	return result, nil
}

func (a *HTTPAdapter) PhysicalDelete(ctx context.Context, storageName string, authToken string) error {
	target := a.baseURL + "/api/files/" + url.PathEscape(storageName)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: delete returned status %d: %s", ErrTransport, resp.StatusCode, string(msg))
	}
	return nil
}

func (a *HTTPAdapter) Download(ctx context.Context, storageName string, authToken string) ([]byte, error) {
	target := a.baseURL + "/api/files/" + url.PathEscape(storageName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download returned status %d", ErrTransport, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
