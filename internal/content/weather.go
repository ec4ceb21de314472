package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode"
	"unicode/utf8"
)

// Location kinds accepted in Params, mirroring the persisted profile values.
const (
	LocationCity   = "city"
	LocationCoords = "coords"
)

const (
	owmBaseURL          = "https://api.openweathermap.org"
	openMeteoBaseURL    = "https://api.open-meteo.com"
	openMeteoGeoBaseURL = "https://geocoding-api.open-meteo.com"
)

// OWMForecast is the primary weather provider: the OpenWeatherMap 5-day
// forecast, reduced to the 3-hourly sample nearest local noon so the morning
// digest describes the day ahead rather than the night just ended.
type OWMForecast struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewOWMForecast(apiKey string) *OWMForecast {
	return &OWMForecast{APIKey: apiKey, BaseURL: owmBaseURL, Client: http.DefaultClient, Now: time.Now}
}

func (w *OWMForecast) Name() string { return "openweathermap-forecast" }

type owmSample struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (s owmSample) toWeather(place string) *Weather {
	desc := ""
	if len(s.Weather) > 0 {
		desc = upperFirst(s.Weather[0].Description)
	}
	return &Weather{
		Place:       place,
		Temp:        s.Main.Temp,
		FeelsLike:   s.Main.FeelsLike,
		Description: desc,
		WindSpeed:   s.Wind.Speed,
	}
}

func (w *OWMForecast) Fetch(ctx context.Context, p Params) (*Result, error) {
	q, err := owmQuery(p, w.APIKey)
	if err != nil {
		return nil, permanentErr(w.Name(), err)
	}

	var payload struct {
		List []owmSample `json:"list"`
		City struct {
			Name string `json:"name"`
		} `json:"city"`
	}
	reqURL := w.BaseURL + "/data/2.5/forecast?" + q.Encode()
	if err := getJSON(ctx, w.Client, w.Name(), reqURL, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, nil
	}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now := w.Now().In(loc)
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, loc)

	times := make([]time.Time, len(payload.List))
	for i, s := range payload.List {
		times[i] = time.Unix(s.Dt, 0)
	}
	best := nearestIndex(times, noon)

	place := payload.City.Name
	if place == "" {
		place = displayPlace(p)
	}
	return &Result{Weather: payload.List[best].toWeather(place)}, nil
}

// OWMCurrent reports current conditions from OpenWeatherMap. Used both as
// forecast fallback and for on-demand weather commands.
type OWMCurrent struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewOWMCurrent(apiKey string) *OWMCurrent {
	return &OWMCurrent{APIKey: apiKey, BaseURL: owmBaseURL, Client: http.DefaultClient}
}

func (w *OWMCurrent) Name() string { return "openweathermap-current" }

func (w *OWMCurrent) Fetch(ctx context.Context, p Params) (*Result, error) {
	q, err := owmQuery(p, w.APIKey)
	if err != nil {
		return nil, permanentErr(w.Name(), err)
	}

	var payload struct {
		Name string    `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	reqURL := w.BaseURL + "/data/2.5/weather?" + q.Encode()
	if err := getJSON(ctx, w.Client, w.Name(), reqURL, &payload); err != nil {
		return nil, err
	}

	desc := ""
	if len(payload.Weather) > 0 {
		desc = upperFirst(payload.Weather[0].Description)
	}
	place := payload.Name
	if place == "" {
		place = displayPlace(p)
	}
	return &Result{Weather: &Weather{
		Place:       place,
		Temp:        payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Description: desc,
		WindSpeed:   payload.Wind.Speed,
	}}, nil
}

// OpenMeteo is the keyless last-resort weather provider. City locations are
// resolved through the Open-Meteo geocoding endpoint first.
type OpenMeteo struct {
	BaseURL    string
	GeoBaseURL string
	Client     *http.Client
}

func NewOpenMeteo() *OpenMeteo {
	return &OpenMeteo{BaseURL: openMeteoBaseURL, GeoBaseURL: openMeteoGeoBaseURL, Client: http.DefaultClient}
}

func (w *OpenMeteo) Name() string { return "open-meteo" }

func (w *OpenMeteo) Fetch(ctx context.Context, p Params) (*Result, error) {
	lat, lon := p.Lat, p.Lon
	place := displayPlace(p)

	if p.LocationKind == LocationCity {
		var geo struct {
			Results []struct {
				Name      string  `json:"name"`
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"results"`
		}
		q := url.Values{}
		q.Set("name", p.City)
		q.Set("count", "1")
		geoURL := w.GeoBaseURL + "/v1/search?" + q.Encode()
		if err := getJSON(ctx, w.Client, w.Name(), geoURL, &geo); err != nil {
			return nil, err
		}
		if len(geo.Results) == 0 {
			return nil, permanentErr(w.Name(), fmt.Errorf("city %q not found", p.City))
		}
		lat, lon = geo.Results[0].Latitude, geo.Results[0].Longitude
		place = geo.Results[0].Name
	} else if p.LocationKind != LocationCoords {
		return nil, permanentErr(w.Name(), errors.New("no location in request"))
	}

	var payload struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Apparent    float64 `json:"apparent_temperature"`
			WeatherCode int     `json:"weather_code"`
			WindSpeed   float64 `json:"wind_speed_10m"`
		} `json:"current"`
	}
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current", "temperature_2m,apparent_temperature,weather_code,wind_speed_10m")
	q.Set("wind_speed_unit", "ms")
	reqURL := w.BaseURL + "/v1/forecast?" + q.Encode()
	if err := getJSON(ctx, w.Client, w.Name(), reqURL, &payload); err != nil {
		return nil, err
	}

	return &Result{Weather: &Weather{
		Place:       place,
		Temp:        payload.Current.Temperature,
		FeelsLike:   payload.Current.Apparent,
		Description: weatherCodeText(payload.Current.WeatherCode),
		WindSpeed:   payload.Current.WindSpeed,
	}}, nil
}

func owmQuery(p Params, apiKey string) (url.Values, error) {
	q := url.Values{}
	switch p.LocationKind {
	case LocationCity:
		if p.City == "" {
			return nil, errors.New("empty city name")
		}
		q.Set("q", p.City)
	case LocationCoords:
		q.Set("lat", fmt.Sprintf("%.4f", p.Lat))
		q.Set("lon", fmt.Sprintf("%.4f", p.Lon))
	default:
		return nil, errors.New("no location in request")
	}
	q.Set("units", "metric")
	if p.Lang != "" {
		q.Set("lang", p.Lang)
	}
	q.Set("appid", apiKey)
	return q, nil
}

// nearestIndex picks the element minimizing distance to target; equal
// distances keep the earlier index.
func nearestIndex(times []time.Time, target time.Time) int {
	best := 0
	bestDiff := absDuration(times[0].Sub(target))
	for i := 1; i < len(times); i++ {
		if d := absDuration(times[i].Sub(target)); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func displayPlace(p Params) string {
	if p.LocationKind == LocationCity {
		return p.City
	}
	return fmt.Sprintf("%.2f, %.2f", p.Lat, p.Lon)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func weatherCodeText(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rain"
	case code >= 71 && code <= 77:
		return "Snow"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code == 85 || code == 86:
		return "Snow showers"
	case code >= 95:
		return "Thunderstorm"
	default:
		return "Unsettled"
	}
}

// getJSON performs a GET and decodes the body, classifying failures for the
// fallback chain: 404 means the request itself is unanswerable, everything
// else (network, 5xx, malformed payload) is worth trying the next provider.
func getJSON(ctx context.Context, client *http.Client, provider, reqURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return transientErr(provider, err)
	}
	res, err := client.Do(req)
	if err != nil {
		return transientErr(provider, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return permanentErr(provider, fmt.Errorf("status %d", res.StatusCode))
	}
	if res.StatusCode != http.StatusOK {
		return transientErr(provider, fmt.Errorf("status %d", res.StatusCode))
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return transientErr(provider, fmt.Errorf("malformed payload: %w", err))
	}
	return nil
}
