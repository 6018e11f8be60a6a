package server

import "github.com/gofiber/fiber/v2"

func registerRoutes(app *fiber.App, s *Server) {
	app.Get("/healthz", s.health)

	api := app.Group("/api/v1", s.rateLimit)
	api.Post("/diagnose", s.diagnose)
	api.Get("/diseases", s.listDiseases)
	api.Get("/diseases/:name", s.getDisease)

	app.Use(s.notFound)
}
