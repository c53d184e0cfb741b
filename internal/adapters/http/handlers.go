package http

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
)

// DeleteAllSchoolsHandler removes every school.
func DeleteAllSchoolsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Schools.DeleteAll(c.UserContext()); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"message": "All schools deleted successfully"})
	}
}

// AddSchoolHandler validates and stores a single school.
func AddSchoolHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := deps.Schools.Add(c.UserContext(), c.Body())
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "School added successfully",
			"id":      id,
		})
	}
}

// BatchAddSchoolsHandler validates every element of a JSON array and stores
// them with one statement. Nothing is stored if any element is invalid.
func BatchAddSchoolsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		count, err := deps.Schools.AddBatch(c.UserContext(), c.Body())
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Schools added successfully",
			"count":   count,
		})
	}
}

// ListSchoolsHandler returns all schools ordered by distance to
// ?latitude=&longitude=.
func ListSchoolsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rawLat, rawLon := c.Query("latitude"), c.Query("longitude")
		if rawLat == "" || rawLon == "" {
			return errBadRequest(c, "Latitude and longitude are required")
		}
		lat, latOK := parseCoordinate(rawLat)
		lon, lonOK := parseCoordinate(rawLon)
		if !latOK || !lonOK {
			return errBadRequest(c, "Latitude and longitude must be finite numbers")
		}

		schools, err := deps.Schools.ListByProximity(c.UserContext(), domain.GeoPoint{Lat: lat, Lon: lon})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(schools)
	}
}

func parseCoordinate(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
