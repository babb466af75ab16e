// Package ai calls the external Gemini model endpoint to classify waste
// photos and verify proof-of-collection images. The integration trades
// strictness for availability: quota exhaustion and every other failure
// mode produce a usable default result instead of an error, so the
// report and verification flows keep working while the AI is degraded.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	modelName      = "gemini-2.5-flash"
)

// Result is the model's verdict on an image. For classification the
// category is a waste category or "non_waste"; for verification it is
// "verified" or "rejected".
type Result struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
}

// Client talks to the Gemini generateContent endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New builds a client. An empty apiKey is allowed; every call then takes
// the fallback path.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

var classifyCategories = map[string]bool{
	"organic": true, "plastic": true, "metal": true, "paper": true,
	"hazardous": true, "general": true, "non_waste": true,
}

var verifyCategories = map[string]bool{
	"verified": true, "rejected": true,
}

const classifyPrompt = `You are an expert waste classification system. Analyze this image and classify the waste type.

CATEGORIES:
- organic: Food waste, fruit peels, vegetable scraps, garden waste
- plastic: Plastic bottles, bags, containers, packaging
- metal: Aluminum cans, tin cans, metal containers
- paper: Cardboard, newspapers, paper packaging
- hazardous: Batteries, chemicals, medical waste, electronic waste
- general: Any mixed waste or unclear items
- non_waste: Only when the image is clearly not physical waste (a face, a screenshot)

Respond in this EXACT JSON format:
{"category": "one of: organic|plastic|metal|paper|hazardous|general|non_waste", "confidence": 0.0-1.0, "message": "Brief disposal instruction or reason for rejection"}`

const verifyPrompt = `You are an expert waste collection verification system. I am providing a proof-of-collection image.

Verify whether the image shows evidence that waste has been collected. Valid evidence includes a clean or tidy area (an "after" photo), a collection vehicle, emptied bins, workers in reflective gear, or bags being handed over.

Respond in this EXACT JSON format:
{"category": "verified" | "rejected", "confidence": 0.0-1.0, "message": "Brief explanation of what you see"}`

// ClassifyWaste asks the model to categorize a waste photo supplied as
// base64 image data. It never returns an error: degraded calls fall back
// to a general classification the citizen can correct by hand.
func (c *Client) ClassifyWaste(ctx context.Context, imageBase64, mimeType string) Result {
	res, err := c.generate(ctx, classifyPrompt, imageBase64, mimeType, classifyCategories)
	if err == nil {
		return res
	}
	if isQuotaError(err) {
		return Result{
			Category:   "general",
			Confidence: 0.5,
			Message:    "AI limit reached. Defaulting to general waste.",
		}
	}
	return Result{
		Category:   "general",
		Confidence: 0.3,
		Message:    "Unable to classify waste automatically. Please pick a category manually.",
	}
}

// VerifyCollection asks the model whether a proof photo shows a completed
// pickup. Degraded calls fall back to a verified result so a broken AI
// dependency never blocks collectors; the admin still makes the final
// call.
func (c *Client) VerifyCollection(ctx context.Context, imageBase64, mimeType string) Result {
	res, err := c.generate(ctx, verifyPrompt, imageBase64, mimeType, verifyCategories)
	if err == nil {
		return res
	}
	if isQuotaError(err) {
		return Result{
			Category:   "verified",
			Confidence: 0.5,
			Message:    "AI limit reached. Auto-approved; manual verification recommended.",
		}
	}
	return Result{
		Category:   "verified",
		Confidence: 0.5,
		Message:    "Manual verification may be required due to a system error.",
	}
}

// generateContent request/response shapes, reduced to the fields used.
type generateRequest struct {
	Contents []content `json:"contents"`
}
type content struct {
	Parts []part `json:"parts"`
}
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}
type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, prompt, imageBase64, mimeType string, valid map[string]bool) (Result, error) {
	if c.apiKey == "" {
		return Result{}, errors.New("no api key configured")
	}
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{MimeType: mimeType, Data: imageBase64}},
			},
		}},
	})
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, modelName, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("gemini: status %d: %s", resp.StatusCode, body)
	}

	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err != nil {
		return Result{}, err
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return Result{}, errors.New("gemini: empty response")
	}
	text := gen.Candidates[0].Content.Parts[0].Text

	// the model wraps its JSON in prose or code fences; take the first
	// balanced-looking object
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Result{}, errors.New("gemini: no JSON object in response")
	}
	var res Result
	if err := json.Unmarshal([]byte(text[start:end+1]), &res); err != nil {
		return Result{}, fmt.Errorf("gemini: parse verdict: %w", err)
	}
	if !valid[res.Category] {
		return Result{}, fmt.Errorf("gemini: invalid category %q", res.Category)
	}
	return res, nil
}

// isQuotaError matches the rate-limit shapes the Gemini API returns.
func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "Quota exceeded") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "resource_exhausted")
}
