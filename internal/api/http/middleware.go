package httpapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/weather-globe/internal/logger"
	"github.com/i474232898/weather-globe/internal/metrics"
	"github.com/i474232898/weather-globe/internal/weather"
)

const (
	headerRequestID = "X-Request-ID"
	localRequestID  = "requestid"
)

// RequestID propagates an incoming X-Request-ID or assigns a new one.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(localRequestID, id)
		c.Set(headerRequestID, id)
		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}

// BaseContext derives each request's user context from parent, so cancelling
// parent (e.g. on shutdown) cancels the request's upstream calls.
func BaseContext(parent context.Context) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(c.UserContext())
		defer cancel()
		stop := context.AfterFunc(parent, cancel)
		defer stop()

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// Instrument counts requests per matched route and final status.
func Instrument(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusFor(err)
		}
		m.ObserveRequest(c.Route().Path, status)
		return err
	}
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Status  int    `json:"status,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is the centralized Fiber error handler. It maps service errors
// to their HTTP status and always answers with an errorResponse.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	body := errorResponse{Error: message(err)}

	var upstream *weather.UpstreamError
	if errors.As(err, &upstream) {
		body.Status = upstream.Status
		body.Details = upstream.Details
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(body)
}

func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return weather.StatusFor(err)
}

// message returns a stable, client-safe description of err.
func message(err error) string {
	var (
		fe         *fiber.Error
		transport  *weather.TransportError
		validation *weather.ValidationError
		config     *weather.ConfigError
		upstream   *weather.UpstreamError
	)
	switch {
	case errors.As(err, &fe):
		return fe.Message
	case weather.IsCancelled(err):
		return "request cancelled"
	case errors.As(err, &validation), errors.As(err, &config), errors.As(err, &upstream):
		return err.Error()
	case errors.As(err, &transport):
		return "failed to fetch from " + transport.Provider
	default:
		return "internal server error"
	}
}
