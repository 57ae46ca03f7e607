package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber app. Immutable is required: bound body and query
// values otherwise alias the request buffer fasthttp reuses.
func NewApp(name string) *fiber.App {
	return fiber.New(AppConfig(name))
}

// AppConfig returns the fiber settings used by NewApp.
func AppConfig(name string) fiber.Config {
	return fiber.Config{
		AppName:               name,
		Immutable:             true,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
	}
}
