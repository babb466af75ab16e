package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cleancity/waste-collection/internal/model"
	"github.com/cleancity/waste-collection/internal/repository"
	"github.com/cleancity/waste-collection/internal/service"
)

// TaskHandler exposes waste report CRUD and the status transition
// endpoint. All mutations go through the lifecycle service; listings go
// through the role-scoped query service.
type TaskHandler struct {
	Lifecycle *service.Lifecycle
	Query     *service.Query
}

func NewTaskHandler(lifecycle *service.Lifecycle, query *service.Query) *TaskHandler {
	if lifecycle == nil || query == nil {
		panic("nil service passed to NewTaskHandler")
	}
	return &TaskHandler{Lifecycle: lifecycle, Query: query}
}

type createTaskReq struct {
	WasteType   string             `json:"wasteType"`
	Amount      string             `json:"amount"`
	Location    string             `json:"location"`
	Coordinates *model.Coordinates `json:"coordinates"`
	CitizenID   string             `json:"citizenId"`
	ImageURL    string             `json:"imageUrl"`
}

type updateTaskReq struct {
	Status      string `json:"status"`
	CollectorID string `json:"collectorId"`
	ProofImage  string `json:"proofImage"`
}

// List handles GET /api/tasks?role=&userId=.
func (h *TaskHandler) List(c echo.Context) error {
	// scope comes from query params so admin screens can inspect other
	// views; absent params fall back to the caller's own identity
	role := c.QueryParam("role")
	if role == "" {
		role = getRole(c)
	}
	userID := c.QueryParam("userId")
	if userID == "" {
		userID, _ = getUserID(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tasks, err := h.Query.ListTasks(ctx, role, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tasks failed"})
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create handles POST /api/tasks: a citizen's waste report.
func (h *TaskHandler) Create(c echo.Context) error {
	var req createTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.WasteType) == "" || strings.TrimSpace(req.Amount) == "" ||
		strings.TrimSpace(req.Location) == "" || req.CitizenID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	task, err := h.Lifecycle.Report(ctx, service.ReportInput{
		WasteType:   req.WasteType,
		Amount:      req.Amount,
		Location:    req.Location,
		Coordinates: req.Coordinates,
		CitizenID:   req.CitizenID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create task failed"})
	}
	return c.JSON(http.StatusCreated, task)
}

// Update handles PATCH /api/tasks/:id: a status transition, optionally
// attaching a collector id or a proof image, with the point award applied
// by the lifecycle service.
func (h *TaskHandler) Update(c echo.Context) error {
	id := c.Param("id")
	var req updateTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	task, err := h.Lifecycle.Transition(ctx, id, service.TransitionInput{
		Status:      req.Status,
		CollectorID: req.CollectorID,
		ProofImage:  req.ProofImage,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		case errors.Is(err, service.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
		}
	}
	return c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /api/tasks?id=. Bulk deletion is the client
// issuing one call per selected id.
func (h *TaskHandler) Delete(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "task id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Lifecycle.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete task failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}
