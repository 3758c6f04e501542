package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChat_SendsModelAndRAGFlags(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "grounded answer"})
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "mistral", time.Second)

	reply, err := client.Chat(context.Background(), "what does it say?", "report.pdf")
	require.NoError(t, err)
	require.Equal(t, "grounded answer", reply)
	require.Equal(t, "what does it say?", got.Message)
	require.Equal(t, "mistral", got.Model)
	require.True(t, got.UseRAG)
	require.Equal(t, "report.pdf", got.DocumentName)
}

func TestChat_NoDocumentDisablesRAG(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "plain answer"})
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "mistral", time.Second)

	_, err := client.Chat(context.Background(), "hello", "")
	require.NoError(t, err)
	require.False(t, got.UseRAG)
	require.Empty(t, got.DocumentName)
}

func TestChat_NonSuccessStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "", time.Second)

	_, err := client.Chat(context.Background(), "hello", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
	require.Contains(t, err.Error(), "model overloaded")
}

func TestUploadDocument_SendsMultipartFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "notes.txt", header.Filename)
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, "hello", string(content))
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "", time.Second)

	err := client.UploadDocument(context.Background(), "notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
}

func TestUploadDocument_NonSuccessStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "", time.Second)

	err := client.UploadDocument(context.Background(), "notes.txt", strings.NewReader("hello"))
	require.Error(t, err)
}

func TestSubmitURL_ReturnsBackendDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/url", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "https://example.com/page", body["url"])
		_ = json.NewEncoder(w).Encode(URLResult{DocumentName: "page.html", Message: "Ingested."})
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "", time.Second)

	result, err := client.SubmitURL(context.Background(), "https://example.com/page")
	require.NoError(t, err)
	require.Equal(t, "page.html", result.DocumentName)
	require.Equal(t, "Ingested.", result.Message)
}

func TestSubmitURL_ErrorFieldFailsDespite200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(URLResult{Error: "fetch timed out"})
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "", time.Second)

	_, err := client.SubmitURL(context.Background(), "https://example.com/slow")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch timed out")
}
