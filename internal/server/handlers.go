package server

import (
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ppiankov/medimatch/internal/pipeline"
	"github.com/sirupsen/logrus"
)

// maxCandidates bounds the ranked alternatives a client may request
const maxCandidates = 20

type diagnoseRequest struct {
	Symptoms string `json:"symptoms"`
	Top      int    `json:"top"`
}

type diseaseListResponse struct {
	Count    int      `json:"count"`
	Diseases []string `json:"diseases"`
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func (s *Server) diagnose(c *fiber.Ctx) error {
	var req diagnoseRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "request body must be JSON like {\"symptoms\": \"fever, cough\"}")
	}
	if req.Top < 0 {
		req.Top = 0
	}
	if req.Top > maxCandidates {
		req.Top = maxCandidates
	}

	result, err := s.current().DiagnoseRanked(c.UserContext(), req.Symptoms, req.Top)
	if err != nil {
		return apiError(c, fiber.StatusServiceUnavailable, "request cancelled")
	}
	return c.JSON(result)
}

func (s *Server) listDiseases(c *fiber.Ctx) error {
	names := s.current().Diseases()
	return c.JSON(diseaseListResponse{Count: len(names), Diseases: names})
}

func (s *Server) getDisease(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid disease name")
	}

	info, err := s.current().Disease(name)
	if errors.Is(err, pipeline.ErrDiseaseNotFound) {
		return apiError(c, fiber.StatusNotFound, "disease not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(info)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(s.current().Health())
}

func (s *Server) notFound(c *fiber.Ctx) error {
	return apiError(c, fiber.StatusNotFound, "not found")
}

func (s *Server) rateLimit(c *fiber.Ctx) error {
	if s.limiter == nil {
		return c.Next()
	}
	if !s.limiter.Allow(c.IP()) {
		c.Set(fiber.HeaderRetryAfter, "1")
		return apiError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
	}
	return c.Next()
}

// handleError turns unhandled errors into JSON responses
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = strings.ToLower(fe.Message)
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"path":  c.Path(),
			"error": err,
		}).Error("Request failed")
	}
	return apiError(c, status, message)
}
