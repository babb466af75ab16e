package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGemini returns a test server that answers every generateContent call
// with the given candidate text.
func stubGemini(t *testing.T, status int, candidateText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.NotEmpty(t, req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)

		if status == http.StatusTooManyRequests {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED","message":"Quota exceeded"}}`))
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"status":"INTERNAL","message":"backend error"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": candidateText}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClassifyWaste_ParsesVerdict(t *testing.T) {
	// the model wraps its JSON in a code fence; the client must dig it out
	srv := stubGemini(t, http.StatusOK,
		"```json\n{\"category\": \"plastic\", \"confidence\": 0.92, \"message\": \"Rinse and recycle.\"}\n```")
	defer srv.Close()

	c := NewWithBaseURL("test-key", srv.URL)
	res := c.ClassifyWaste(context.Background(), "aGVsbG8=", "image/jpeg")

	assert.Equal(t, "plastic", res.Category)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.Equal(t, "Rinse and recycle.", res.Message)
}

func TestClassifyWaste_QuotaFallback(t *testing.T) {
	srv := stubGemini(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	c := NewWithBaseURL("test-key", srv.URL)
	res := c.ClassifyWaste(context.Background(), "aGVsbG8=", "image/jpeg")

	assert.Equal(t, "general", res.Category)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.Contains(t, res.Message, "limit reached")
}

func TestClassifyWaste_GarbageFallback(t *testing.T) {
	srv := stubGemini(t, http.StatusOK, "I cannot answer in the requested format.")
	defer srv.Close()

	c := NewWithBaseURL("test-key", srv.URL)
	res := c.ClassifyWaste(context.Background(), "aGVsbG8=", "image/jpeg")

	assert.Equal(t, "general", res.Category)
	assert.InDelta(t, 0.3, res.Confidence, 1e-9)
}

func TestClassifyWaste_RejectsForeignCategory(t *testing.T) {
	// a verify-style verdict is not valid for classification
	srv := stubGemini(t, http.StatusOK, `{"category": "verified", "confidence": 0.9, "message": "ok"}`)
	defer srv.Close()

	c := NewWithBaseURL("test-key", srv.URL)
	res := c.ClassifyWaste(context.Background(), "aGVsbG8=", "image/jpeg")

	assert.Equal(t, "general", res.Category)
	assert.InDelta(t, 0.3, res.Confidence, 1e-9)
}

func TestClassifyWaste_NoAPIKey(t *testing.T) {
	c := New("")
	res := c.ClassifyWaste(context.Background(), "aGVsbG8=", "image/jpeg")
	assert.Equal(t, "general", res.Category)
}

func TestVerifyCollection_ParsesVerdict(t *testing.T) {
	srv := stubGemini(t, http.StatusOK, `{"category": "rejected", "confidence": 0.81, "message": "Area still littered."}`)
	defer srv.Close()

	c := NewWithBaseURL("test-key", srv.URL)
	res := c.VerifyCollection(context.Background(), "aGVsbG8=", "image/jpeg")

	assert.Equal(t, "rejected", res.Category)
	assert.InDelta(t, 0.81, res.Confidence, 1e-9)
}

func TestVerifyCollection_FailureAutoApproves(t *testing.T) {
	srv := stubGemini(t, http.StatusInternalServerError, "")
	defer srv.Close()

	c := NewWithBaseURL("test-key", srv.URL)
	res := c.VerifyCollection(context.Background(), "aGVsbG8=", "image/jpeg")

	// a broken AI must never block collectors
	assert.Equal(t, "verified", res.Category)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
}
