package ai

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
)

// InferenceClient talks to the stateless inference backend: chat completion
// (optionally grounded in a previously ingested document), raw document
// ingestion, and URL ingestion.
type InferenceClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ChatRequest struct {
	Message      string `json:"message"`
	Model        string `json:"model"`
	UseRAG       bool   `json:"use_rag"`
	DocumentName string `json:"document_name"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// URLResult is the backend's answer to URL ingestion. An Error field forces
// the failure path even when the HTTP status is 200.
type URLResult struct {
	DocumentName string `json:"document_name"`
	Message      string `json:"message"`
	Error        string `json:"error"`
}

func NewInferenceClient(baseURL, model string, timeout time.Duration) *InferenceClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost:8000"
	}
	if strings.TrimSpace(model) == "" {
		model = "mistral"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &InferenceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat sends a user message and returns the generated reply. When
// documentName is non-empty the backend grounds the answer in that document.
func (c *InferenceClient) Chat(ctx context.Context, message, documentName string) (string, error) {
	reqBody := ChatRequest{
		Message:      message,
		Model:        c.model,
		UseRAG:       documentName != "",
		DocumentName: documentName,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal chat request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build chat request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call inference chat failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("inference chat returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response failed: %w", err)
	}
	return parsed.Response, nil
}

// UploadDocument forwards raw file bytes for ingestion. The response body is
// informational only; callers treat a failure here as soft because the file
// is already durably stored.
func (c *InferenceClient) UploadDocument(ctx context.Context, fileName string, content io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("build upload form failed: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copy upload content failed: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalize upload form failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return fmt.Errorf("build upload request failed: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call inference upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("inference upload returned status %d", resp.StatusCode)
	}

	// Drain so the connection can be reused; the body shape is not validated.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	return nil
}

// SubmitURL asks the backend to fetch and ingest a linked document.
func (c *InferenceClient) SubmitURL(ctx context.Context, url string) (*URLResult, error) {
	bodyBytes, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return nil, fmt.Errorf("marshal url request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/url", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build url request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call inference url failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("inference url returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed URLResult
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode url response failed: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("inference url processing failed: %s", parsed.Error)
	}
	return &parsed, nil
}
