package web

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/facelight/pkg/hub"
	"github.com/teslashibe/facelight/pkg/presence"
)

// RootMessage is the body of GET /.
const RootMessage = "Face Brightness Controller Running"

// CheckResponse is the body of a successful GET /check-faces.
type CheckResponse struct {
	FacesDetected int    `json:"faces_detected"`
	BrightnessSet int    `json:"brightness_set"`
	ActuatorError string `json:"actuator_error,omitempty"`
}

// ErrorResponse is returned when a request or check fails.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// MonitoringRequest is the body of POST /api/monitoring.
type MonitoringRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": RootMessage})
}

// handleCheckFaces runs one presence check and publishes it. A failed
// check is still a 200 response carrying an error field.
func (s *Server) handleCheckFaces(c *fiber.Ctx) error {
	s.state.BeginCheck()
	out := s.checker.Check(c.UserContext())
	s.state.Publish(out)

	logger := s.logger.With("request_id", c.Locals("requestid"))
	if out.Failed() {
		logger.Warn("manual check failed", "kind", out.Kind(), "error", out.Err)
		return c.JSON(ErrorResponse{
			Error: out.Err.Error(),
			Kind:  string(out.Kind()),
		})
	}

	logger.Info("manual check", "faces", out.Faces, "brightness", out.Brightness)
	resp := CheckResponse{
		FacesDetected: out.Faces,
		BrightnessSet: out.Brightness,
	}
	if out.ActuatorErr != nil {
		resp.ActuatorError = out.ActuatorErr.Error()
	}
	return c.JSON(resp)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.state.Snapshot())
}

// handleMonitoring starts or stops background monitoring and returns the
// resulting state.
func (s *Server) handleMonitoring(c *fiber.Ctx) error {
	var req MonitoringRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid request body",
		})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "enabled is required",
		})
	}
	if s.monitor == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error: "monitoring not configured",
		})
	}

	s.monitor.SetEnabled(*req.Enabled)
	s.logger.Info("monitoring toggled", "enabled", *req.Enabled)
	return c.JSON(s.state.Snapshot())
}

// handleStatusWS sends the current snapshot, then every published one.
// The client is registered before the snapshot is read so no publish
// falls in between.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)
	if client == nil {
		return
	}
	if err := s.sendSnapshot(client); err != nil {
		s.logger.Warn("encode snapshot", "error", err)
	}
	client.Run()
}

func (s *Server) sendSnapshot(client *hub.Client) error {
	s.feedMu.Lock()
	defer s.feedMu.Unlock()
	data, err := jsoniter.Marshal(s.state.Snapshot())
	if err != nil {
		return err
	}
	s.statusHub.Send(client, data)
	return nil
}

var _ MonitorControl = (*presence.Monitor)(nil)
