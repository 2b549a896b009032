package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/hzamorano/delivery-weather-alerts/internal/alert"
	"github.com/hzamorano/delivery-weather-alerts/internal/store"
)

var validate = validator.New()

// alertRequest is the POST /alert body.
type alertRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Location string `json:"location" validate:"required"`
}

// alertResponse mirrors the historical response contract.
type alertResponse struct {
	ForecastCode        int    `json:"forecast_code"`
	ForecastDescription string `json:"forecast_description"`
	BuyerNotification   bool   `json:"buyer_notification"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc *alert.Service, ledger *store.Ledger) {
	app.Post("/alert", func(c *fiber.Ctx) error {
		var req alertRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := svc.HandleAlert(c.Context(), req.Email, req.Location)
		switch {
		case errors.Is(err, alert.ErrInvalidInput):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, alert.ErrForecastUnavailable):
			return fiber.NewError(fiber.StatusBadGateway, "failed to fetch weather data")
		case errors.Is(err, store.ErrUnavailable):
			return fiber.NewError(fiber.StatusInternalServerError, "failed to record notification")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}

		return c.JSON(alertResponse{
			ForecastCode:        res.ForecastCode,
			ForecastDescription: res.ForecastDescription,
			BuyerNotification:   res.Notified,
		})
	})

	app.Get("/notifications", func(c *fiber.Ctx) error {
		email := c.Query("email")
		if email == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email query parameter is required")
		}

		records, err := ledger.FindByEmail(c.Context(), email)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch notifications")
		}

		return c.JSON(fiber.Map{"notifications": records})
	})
}
