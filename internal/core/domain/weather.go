package domain

// Forecast is the raw forecast payload returned by the weather provider.
type Forecast struct {
	Timezone string          `json:"timezone"`
	Current  CurrentReadings `json:"current"`
	Hourly   HourlySeries    `json:"hourly"`
}

// CurrentReadings holds the current-conditions block. Pointers are nil when
// the provider omitted the value.
type CurrentReadings struct {
	Time                string   `json:"time"`
	Temperature         *float64 `json:"temperature_2m"`
	RelativeHumidity    *float64 `json:"relative_humidity_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	Precipitation       *float64 `json:"precipitation"`
	WeatherCode         *int     `json:"weather_code"`
	WindSpeed           *float64 `json:"wind_speed_10m"`
	WindDirection       *float64 `json:"wind_direction_10m"`
}

// HourlySeries holds parallel arrays indexed by hour.
type HourlySeries struct {
	Time                     []string   `json:"time"`
	Temperature              []*float64 `json:"temperature_2m"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
	Precipitation            []*float64 `json:"precipitation"`
	WeatherCode              []*int     `json:"weather_code"`
	WindSpeed                []*float64 `json:"wind_speed_10m"`
}

// Measurement is a value with its unit.
type Measurement struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

// Wind describes wind speed and direction.
type Wind struct {
	Speed     *float64 `json:"speed"`
	Direction *float64 `json:"direction"`
	Compass   string   `json:"direction_compass"`
	Unit      string   `json:"unit"`
}

// CurrentConditions is the human-oriented view of CurrentReadings.
type CurrentConditions struct {
	Time               string      `json:"time"`
	Temperature        Measurement `json:"temperature"`
	FeelsLike          Measurement `json:"feels_like"`
	Humidity           Measurement `json:"humidity"`
	Precipitation      Measurement `json:"precipitation"`
	WeatherCode        *int        `json:"weather_code"`
	WeatherDescription string      `json:"weather_description"`
	Wind               Wind        `json:"wind"`
}

// HourlyEntry is one hour of the forecast.
type HourlyEntry struct {
	Time                     string   `json:"time"`
	Temperature              *float64 `json:"temperature"`
	PrecipitationProbability *float64 `json:"precipitation_probability"`
	Precipitation            *float64 `json:"precipitation"`
	WeatherCode              *int     `json:"weather_code"`
	WeatherDescription       string   `json:"weather_description"`
	WindSpeed                *float64 `json:"wind_speed"`
}

// WeatherReport is returned by the weather operation.
type WeatherReport struct {
	Location       string            `json:"location"`
	Country        string            `json:"country"`
	Coordinates    GeoPoint          `json:"coordinates"`
	Timezone       string            `json:"timezone"`
	Current        CurrentConditions `json:"current"`
	HourlyForecast []HourlyEntry     `json:"hourly_forecast"`
	DataSource     string            `json:"data_source"`
}
