package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/meteomcp/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinatesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinates",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"country":     &graphql.Field{Type: graphql.String},
			"coordinates": &graphql.Field{Type: coordinatesType},
			"timezone":    &graphql.Field{Type: graphql.String},
			"cached_at":   &graphql.Field{Type: graphql.String},
		},
	})

	currentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CurrentConditions",
		Fields: graphql.Fields{
			"time":                &graphql.Field{Type: graphql.String},
			"temperature":         &graphql.Field{Type: graphql.Float},
			"feels_like":          &graphql.Field{Type: graphql.Float},
			"humidity":            &graphql.Field{Type: graphql.Float},
			"precipitation":       &graphql.Field{Type: graphql.Float},
			"weather_code":        &graphql.Field{Type: graphql.Int},
			"weather_description": &graphql.Field{Type: graphql.String},
			"wind_speed":          &graphql.Field{Type: graphql.Float},
			"wind_direction":      &graphql.Field{Type: graphql.Float},
			"wind_compass":        &graphql.Field{Type: graphql.String},
		},
	})

	hourlyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HourlyForecast",
		Fields: graphql.Fields{
			"time":                      &graphql.Field{Type: graphql.String},
			"temperature":               &graphql.Field{Type: graphql.Float},
			"precipitation_probability": &graphql.Field{Type: graphql.Float},
			"precipitation":             &graphql.Field{Type: graphql.Float},
			"weather_code":              &graphql.Field{Type: graphql.Int},
			"weather_description":       &graphql.Field{Type: graphql.String},
			"wind_speed":                &graphql.Field{Type: graphql.Float},
		},
	})

	weatherType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Weather",
		Fields: graphql.Fields{
			"location":        &graphql.Field{Type: graphql.String},
			"country":         &graphql.Field{Type: graphql.String},
			"coordinates":     &graphql.Field{Type: coordinatesType},
			"timezone":        &graphql.Field{Type: graphql.String},
			"current":         &graphql.Field{Type: currentType},
			"hourly_forecast": &graphql.Field{Type: graphql.NewList(hourlyType)},
			"data_source":     &graphql.Field{Type: graphql.String},
		},
	})

	cacheStatsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CacheStats",
		Fields: graphql.Fields{
			"backend":         &graphql.Field{Type: graphql.String},
			"total_entries":   &graphql.Field{Type: graphql.Int},
			"expired_entries": &graphql.Field{Type: graphql.Int},
			"valid_entries":   &graphql.Field{Type: graphql.Int},
			"expiry_days":     &graphql.Field{Type: graphql.Int},
			"location":        &graphql.Field{Type: graphql.String},
		},
	})

	locationArg := graphql.FieldConfigArgument{
		"location": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"geocode": &graphql.Field{
				Type:        locationType,
				Description: "Resolve a location name to coordinates",
				Args:        locationArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					rec, err := deps.Geocoding.Resolve(p.Context, p.Args["location"].(string))
					if err != nil {
						return nil, err
					}
					return locationMap(rec), nil
				},
			},
			"weather": &graphql.Field{
				Type:        weatherType,
				Description: "Current conditions and hourly forecast for a location",
				Args:        locationArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					report, err := deps.Weather.Get(p.Context, p.Args["location"].(string))
					if err != nil {
						return nil, err
					}
					return weatherMap(report), nil
				},
			},
			"cacheStats": &graphql.Field{
				Type:        cacheStatsType,
				Description: "Location cache summary",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					stats, err := deps.Cache.Stats(p.Context)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"backend":         stats.Backend,
						"total_entries":   stats.Total,
						"expired_entries": stats.Expired,
						"valid_entries":   stats.Valid,
						"expiry_days":     stats.ExpiryDays,
						"location":        stats.Location,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func coordinatesMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"latitude": p.Latitude, "longitude": p.Longitude}
}

func locationMap(rec *domain.LocationRecord) map[string]interface{} {
	return map[string]interface{}{
		"name":        rec.Name,
		"country":     rec.Country,
		"coordinates": coordinatesMap(rec.Point()),
		"timezone":    rec.Timezone,
		"cached_at":   rec.CachedAt.UTC().Format(time.RFC3339),
	}
}

func weatherMap(r *domain.WeatherReport) map[string]interface{} {
	hourly := make([]map[string]interface{}, 0, len(r.HourlyForecast))
	for _, h := range r.HourlyForecast {
		hourly = append(hourly, map[string]interface{}{
			"time":                      h.Time,
			"temperature":               deref(h.Temperature),
			"precipitation_probability": deref(h.PrecipitationProbability),
			"precipitation":             deref(h.Precipitation),
			"weather_code":              deref(h.WeatherCode),
			"weather_description":       h.WeatherDescription,
			"wind_speed":                deref(h.WindSpeed),
		})
	}
	cur := r.Current
	return map[string]interface{}{
		"location":    r.Location,
		"country":     r.Country,
		"coordinates": coordinatesMap(r.Coordinates),
		"timezone":    r.Timezone,
		"current": map[string]interface{}{
			"time":                cur.Time,
			"temperature":         deref(cur.Temperature.Value),
			"feels_like":          deref(cur.FeelsLike.Value),
			"humidity":            deref(cur.Humidity.Value),
			"precipitation":       deref(cur.Precipitation.Value),
			"weather_code":        deref(cur.WeatherCode),
			"weather_description": cur.WeatherDescription,
			"wind_speed":          deref(cur.Wind.Speed),
			"wind_direction":      deref(cur.Wind.Direction),
			"wind_compass":        cur.Wind.Compass,
		},
		"hourly_forecast": hourly,
		"data_source":     r.DataSource,
	}
}

// deref turns a nil pointer into a GraphQL null.
func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
