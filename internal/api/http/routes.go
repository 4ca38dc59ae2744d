package httpapi

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/weather-globe/internal/globe"
	"github.com/i474232898/weather-globe/internal/metrics"
	"github.com/i474232898/weather-globe/internal/weather"
)

var validate = newValidator()

// newValidator reports fields by their query parameter name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Deps are the collaborators the routes need. Sun, Metrics and Context may be nil.
type Deps struct {
	Service  *weather.Service
	Sun      globe.SunSource
	Textures globe.Textures
	Metrics  *metrics.Metrics
	// Context bounds every request's upstream calls, typically the server's
	// shutdown context.
	Context context.Context
}

// RegisterRoutes wires the HTTP handlers into the Fiber app, both at the root and under /api.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Use(RequestID())
	if deps.Context != nil {
		app.Use(BaseContext(deps.Context))
	}
	app.Use(Instrument(deps.Metrics))

	register(app, deps)
	register(app.Group("/api"), deps)

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
}

func register(r fiber.Router, deps Deps) {
	service := deps.Service

	r.Get("/weather", func(c *fiber.Ctx) error {
		var req weatherQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}

		body, err := service.Current(c.UserContext(), req.Q)
		if err != nil {
			return err
		}
		return sendRawJSON(c, body)
	})

	r.Get("/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}

		body, err := service.Forecast(c.UserContext(), req.Q, req.Days)
		if err != nil {
			return err
		}
		return sendRawJSON(c, body)
	})

	r.Get("/overview", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}

		ov, err := service.Overview(c.UserContext(), req.Q, req.Days)
		if err != nil {
			return err
		}
		return c.JSON(ov)
	})

	r.Get("/image", func(c *fiber.Ctx) error {
		var req imageQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}

		urls, err := service.Images(c.UserContext(), req.Place, req.Limit)
		if err != nil {
			return err
		}
		return c.JSON(urls)
	})

	r.Get("/geocode/reverse", func(c *fiber.Ctx) error {
		var req reverseQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}

		coord := globe.GeoCoordinate{Lat: *req.Lat, Lng: *req.Lng}
		place, err := service.ReversePlace(c.UserContext(), coord)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"lat":   coord.Lat,
			"lng":   coord.Lng,
			"place": place,
		})
	})

	r.Get("/sun", func(c *fiber.Ctx) error {
		s := currentSun(deps.Sun)
		return c.JSON(fiber.Map{
			"direction": fiber.Map{
				"x": s.Direction.X,
				"y": s.Direction.Y,
				"z": s.Direction.Z,
			},
			"intensity":  s.Intensity,
			"computedAt": s.ComputedAt.UTC().Format(time.RFC3339),
		})
	})

	r.Get("/daynight.png", func(c *fiber.Ctx) error {
		var req dayNightQuery
		if err := bindQuery(c, &req); err != nil {
			return err
		}
		if req.Width == 0 {
			req.Width = defaultMapWidth
		}

		img := globe.RenderDayNightMap(deps.Textures, currentSun(deps.Sun).Direction, req.Width)

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(buf.Bytes())
	})
}

const defaultMapWidth = 512

func currentSun(src globe.SunSource) globe.SunState {
	if src == nil {
		return globe.ComputeSun(time.Now())
	}
	return src.Current()
}

func sendRawJSON(c *fiber.Ctx, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

// weatherQuery accepts q, or location as an alias.
type weatherQuery struct {
	Q string `query:"q" validate:"required"`
}

func (q *weatherQuery) bind(c *fiber.Ctx) error {
	q.Q = firstQuery(c, "q", "location")
	return nil
}

type forecastQuery struct {
	Q    string `query:"q" validate:"required"`
	Days int    `query:"days" validate:"omitempty,min=1,max=14"`
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	q.Q = firstQuery(c, "q", "location")
	var err error
	q.Days, err = intQuery(c, "days")
	return err
}

type imageQuery struct {
	Place string `query:"place" validate:"required"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=20"`
}

func (q *imageQuery) bind(c *fiber.Ctx) error {
	q.Place = strings.TrimSpace(c.Query("place"))
	var err error
	q.Limit, err = intQuery(c, "limit")
	return err
}

type reverseQuery struct {
	Lat *float64 `query:"lat" validate:"required,min=-90,max=90"`
	Lng *float64 `query:"lng" validate:"required,min=-180,max=180"`
}

func (q *reverseQuery) bind(c *fiber.Ctx) error {
	var err error
	if q.Lat, err = floatQuery(c, "lat"); err != nil {
		return err
	}
	q.Lng, err = floatQuery(c, "lng")
	return err
}

type dayNightQuery struct {
	Width int `query:"width" validate:"omitempty,min=64,max=2048"`
}

func (q *dayNightQuery) bind(c *fiber.Ctx) error {
	var err error
	q.Width, err = intQuery(c, "width")
	return err
}

type binder interface {
	bind(c *fiber.Ctx) error
}

// bindQuery parses and validates req, returning a *weather.ValidationError on failure.
func bindQuery(c *fiber.Ctx, req binder) error {
	if err := req.bind(c); err != nil {
		return err
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Tag() == "required" {
				return &weather.ValidationError{Field: fe.Field()}
			}
			return &weather.ValidationError{Field: fe.Field(), Reason: "failed " + fe.Tag() + "=" + fe.Param()}
		}
		return &weather.ValidationError{Field: "query", Reason: err.Error()}
	}
	return nil
}

func firstQuery(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}

// intQuery returns 0 for an absent parameter.
func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &weather.ValidationError{Field: key, Reason: "must be an integer"}
	}
	if n == 0 {
		// Zero would read as "use the default".
		return 0, &weather.ValidationError{Field: key, Reason: "must be positive"}
	}
	return n, nil
}

func floatQuery(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &weather.ValidationError{Field: key, Reason: "must be a number"}
	}
	return &f, nil
}
