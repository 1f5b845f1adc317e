package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"biocharapi/internal/feedstock"
	"biocharapi/internal/geodesy"
	"biocharapi/internal/imagery"
	"biocharapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; all business logic lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, estSvc service.EstimateService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/feedstocks", ListFeedstocks())

	app.Post("/estimates/direct", EstimateDirect(estSvc))
	app.Post("/estimates/polygon", EstimatePolygon(estSvc))
	app.Post("/estimates/image", EstimateImage(estSvc))

	app.Get("/estimates", ListEstimates(estSvc))
	app.Get("/estimates/:id", GetEstimate(estSvc))
	app.Delete("/estimates/:id", DeleteEstimate(estSvc))
}

// HealthCheck reports readiness; it fails when the database is unreachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a trivial liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListFeedstocks returns the static feedstock catalog.
func ListFeedstocks() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": feedstock.All()})
	}
}

// directRequest is the body of POST /estimates/direct.
type directRequest struct {
	FeedstockType string  `json:"feedstock_type"`
	Hectares      float64 `json:"hectares"`
	PileHeight    float64 `json:"pile_height"`
}

// EstimateDirect computes an estimate for a directly entered area in hectares.
func EstimateDirect(svc service.EstimateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req directRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		est, err := svc.EstimateDirect(c.UserContext(), service.DirectInput{
			Feedstock:   req.FeedstockType,
			Hectares:    req.Hectares,
			PileHeightM: req.PileHeight,
		})
		if err != nil {
			return writeEstimateError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(est)
	}
}

// polygonRequest is the body of POST /estimates/polygon.
type polygonRequest struct {
	FeedstockType string `json:"feedstock_type"`
	// Coordinates holds one "lat,lon" vertex per line.
	Coordinates string  `json:"coordinates"`
	PileHeight  float64 `json:"pile_height"`
}

// EstimatePolygon computes an estimate for a plot traced as a geodesic polygon.
func EstimatePolygon(svc service.EstimateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req polygonRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		est, err := svc.EstimatePolygon(c.UserContext(), service.PolygonInput{
			Feedstock:   req.FeedstockType,
			Coordinates: req.Coordinates,
			PileHeightM: req.PileHeight,
		})
		if err != nil {
			return writeEstimateError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(est)
	}
}

// EstimateImage computes an estimate from uploaded aerial imagery
// (multipart/form-data: feedstock_type, optional pile_height, file).
func EstimateImage(svc service.EstimateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		var pileHeight float64
		if v := c.FormValue("pile_height"); v != "" {
			pileHeight, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PILE_HEIGHT", "invalid pile height")
			}
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		est, err := svc.EstimateImage(c.UserContext(), f, service.ImageInput{
			Feedstock:   c.FormValue("feedstock_type"),
			PileHeightM: pileHeight,
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
		})
		if err != nil {
			return writeEstimateError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(est)
	}
}

// ListEstimates returns the estimate history with limit & offset.
func ListEstimates(svc service.EstimateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetEstimate returns a stored estimate by ID.
func GetEstimate(svc service.EstimateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		est, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "estimate not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(est)
	}
}

// DeleteEstimate removes a stored estimate by ID.
func DeleteEstimate(svc service.EstimateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "estimate not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// writeEstimateError maps service/domain sentinel errors to HTTP responses.
func writeEstimateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownFeedstock):
		return writeError(c, fiber.StatusBadRequest, "UNKNOWN_FEEDSTOCK", "unknown feedstock type")
	case errors.Is(err, service.ErrInvalidArea):
		return writeError(c, fiber.StatusBadRequest, "INVALID_AREA", "hectares must be positive")
	case errors.Is(err, geodesy.ErrInsufficientPoints):
		return writeError(c, fiber.StatusBadRequest, "INSUFFICIENT_POINTS", "at least 3 coordinate points required")
	case errors.Is(err, geodesy.ErrInvalidCoordinates):
		return writeError(c, fiber.StatusBadRequest, "INVALID_COORDINATES", "invalid coordinate format, use 'lat,lon' per line")
	case errors.Is(err, imagery.ErrInvalidImage):
		return writeError(c, fiber.StatusBadRequest, "INVALID_IMAGE", "invalid image file")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
