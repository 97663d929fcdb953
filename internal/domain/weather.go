package domain

// WeatherStatus tags the outcome of a historical weather lookup.
type WeatherStatus string

const (
	WeatherSuccess        WeatherStatus = "SUCCESS"
	WeatherNoData         WeatherStatus = "NO_DATA_AVAILABLE"
	WeatherRetryExhausted WeatherStatus = "RETRY_EXHAUSTED"
	WeatherFatalError     WeatherStatus = "FATAL_ERROR"
)

// WeatherObservation is one historical measurement set as produced at
// the weather-source boundary: wind speed already converted to m/s,
// values unrounded. Individual measurements may be absent.
type WeatherObservation struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindDirection *float64 `json:"wind_direction,omitempty"`
}

// WeatherOutcome is a tagged union over the four lookup states.
// Exactly one status is active; measurement fields are populated only
// on SUCCESS and may still be individually absent (a successful fetch
// does not guarantee every measurement).
type WeatherOutcome struct {
	Status WeatherStatus

	// Present only on SUCCESS. Wind speed is already converted to m/s
	// at the source boundary; values carry full precision.
	Temperature   *float64
	WindSpeed     *float64
	WindDirection *float64

	// Underlying cause for NO_DATA_AVAILABLE (optional), RETRY_EXHAUSTED
	// and FATAL_ERROR.
	Err error
}

func WeatherSucceeded(temperature, windSpeed, windDirection *float64) WeatherOutcome {
	return WeatherOutcome{
		Status:        WeatherSuccess,
		Temperature:   temperature,
		WindSpeed:     windSpeed,
		WindDirection: windDirection,
	}
}

func WeatherUnavailable(err error) WeatherOutcome {
	return WeatherOutcome{Status: WeatherNoData, Err: err}
}

func WeatherExhausted(err error) WeatherOutcome {
	return WeatherOutcome{Status: WeatherRetryExhausted, Err: err}
}

func WeatherFailed(err error) WeatherOutcome {
	return WeatherOutcome{Status: WeatherFatalError, Err: err}
}
