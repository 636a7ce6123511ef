package api

import (
	"errors"

	models "LoadPulse/internal/domain/models"
	"LoadPulse/internal/domain/service"
	"LoadPulse/internal/usecase"
	xhttp "LoadPulse/pkg/http"
	xlogger "LoadPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastEchoHandler exposes the engine over HTTP for hosts that embed it
// as a local sidecar instead of linking it directly.
type ForecastEchoHandler struct {
	logger *xlogger.Logger
	engine *usecase.ForecastEngine
}

func NewForecastEchoHandler(logger *xlogger.Logger, engine *usecase.ForecastEngine) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, engine: engine}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/forecast", h.Forecast)
	g.POST("/outcome", h.Outcome)
	g.GET("/model/status", h.ModelStatus)
	g.DELETE("/model", h.DeleteModel)
}

// Forecast returns the 14-day fatigue forecast. Degradations are documented
// 200 responses with available=false, never 5xx: the caller falls back to
// its rule-based estimator and must not treat them as faults.
func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.engine.Predict(c.Request().Context(), req.UserID, req.History, req.Wellness, req.Config)
	if err != nil {
		if reason, ok := degradeReason(err); ok {
			return xhttp.SuccessResponse(c, models.UnavailableResponse{Reason: reason})
		}
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Outcome accepts a completed workout for an asynchronous model update.
func (h *ForecastEchoHandler) Outcome(c echo.Context) error {
	req := &models.OutcomeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.engine.RecordWorkoutOutcome(c.Request().Context(), req.UserID, req.Workout,
		req.History, req.Wellness, req.Config)
	if err != nil {
		if reason, ok := degradeReason(err); ok {
			return xhttp.SuccessResponse(c, models.UnavailableResponse{Reason: reason})
		}
		h.logger.Error("outcome usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, echo.Map{"accepted": true})
}

// ModelStatus reports whether a trained model is persisted for the user.
func (h *ForecastEchoHandler) ModelStatus(c echo.Context) error {
	req := &models.ModelStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	trained, err := h.engine.HasTrainedModel(c.Request().Context(), req.UserID)
	if err != nil {
		if reason, ok := degradeReason(err); ok {
			return xhttp.SuccessResponse(c, models.UnavailableResponse{Reason: reason})
		}
		h.logger.Error("model status error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	status := models.EngineStatus{UserID: req.UserID, Trained: trained}
	if trained {
		status.ModelVersion = h.engine.ModelVersion()
	}
	return xhttp.SuccessResponse(c, status)
}

// DeleteModel removes the user's model and snapshot.
func (h *ForecastEchoHandler) DeleteModel(c echo.Context) error {
	req := &models.ModelStatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.engine.DeleteModel(c.Request().Context(), req.UserID); err != nil {
		if reason, ok := degradeReason(err); ok {
			return xhttp.SuccessResponse(c, models.UnavailableResponse{Reason: reason})
		}
		h.logger.Error("model delete error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// degradeReason maps the engine's degradation sentinels to their documented
// response reasons.
func degradeReason(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrInsufficientData):
		return "insufficient_history", true
	case errors.Is(err, service.ErrUnavailable):
		return "engine_unavailable", true
	case errors.Is(err, service.ErrNumeric):
		return "numeric_failure", true
	default:
		return "", false
	}
}
