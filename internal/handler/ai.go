package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cleancity/waste-collection/internal/ai"
)

// AIHandler fronts the Gemini-backed classification endpoints. The client
// degrades to safe defaults on upstream failure, so these handlers only
// ever fail on a bad request body.
type AIHandler struct {
	Client *ai.Client
}

func NewAIHandler(client *ai.Client) *AIHandler {
	return &AIHandler{Client: client}
}

type imageReq struct {
	Image    string `json:"image"`    // base64-encoded image data
	MimeType string `json:"mimeType"` // e.g. image/jpeg
}

// Classify handles POST /api/ai/classify.
func (h *AIHandler) Classify(c echo.Context) error {
	var req imageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Image == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image is required"})
	}
	if req.MimeType == "" {
		req.MimeType = "image/jpeg"
	}

	res := h.Client.ClassifyWaste(c.Request().Context(), req.Image, req.MimeType)
	return c.JSON(http.StatusOK, res)
}

// Verify handles POST /api/ai/verify.
func (h *AIHandler) Verify(c echo.Context) error {
	var req imageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Image == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image is required"})
	}
	if req.MimeType == "" {
		req.MimeType = "image/jpeg"
	}

	res := h.Client.VerifyCollection(c.Request().Context(), req.Image, req.MimeType)
	return c.JSON(http.StatusOK, res)
}
