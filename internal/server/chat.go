package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/malecare/trialmatch/dialog"
	"github.com/malecare/trialmatch/models"
)

// defaultSessionID is used when a message arrives without a session id.
const defaultSessionID = "default"

type ChatHandler struct {
	Engine *dialog.Engine
}

func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/intake", h.intake)
	e.POST("/message", h.message)
	e.DELETE("/session/:id", h.endSession)
}

type intakeRequest struct {
	SessionID string `json:"session_id"`
	models.IntakeSubmission
}

func (h *ChatHandler) intake(c echo.Context) error {
	var req intakeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	state, err := h.Engine.SubmitIntake(c.Request().Context(), req.SessionID, req.IntakeSubmission)
	if errors.Is(err, models.ErrIncompleteIntake) {
		return echo.NewHTTPError(http.StatusBadRequest, "cancer_type, stage, age, sex and location are required")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"response":        dialog.IntakeConfirmation(state),
		"session_id":      req.SessionID,
		"intake_complete": true,
		"state":           state,
	})
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"` // accepted as an alias for session_id
	Message   string `json:"message"`
}

func (h *ChatHandler) message(c echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	id := req.SessionID
	if id == "" {
		id = req.UserID
	}
	if id == "" {
		id = defaultSessionID
	}

	reply, err := h.Engine.HandleMessage(c.Request().Context(), id, req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id":      id,
		"response":        reply.Response,
		"intent":          reply.Intent,
		"requires_intake": reply.RequiresIntake,
		"trials":          reply.Trials,
	})
}

func (h *ChatHandler) endSession(c echo.Context) error {
	id := c.Param("id")
	if err := h.Engine.EndSession(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// Same acknowledgement whether or not the session existed.
	return c.JSON(http.StatusOK, map[string]string{
		"response": "Session ended. Feel free to come back anytime.",
	})
}
