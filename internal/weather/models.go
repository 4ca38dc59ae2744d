package weather

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "clear"
	ConditionPartlyCloudy Condition = "partly_cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionMist         Condition = "mist"
	ConditionRain         Condition = "rain"
	ConditionHeavyRain    Condition = "heavy_rain"
	ConditionSnow         Condition = "snow"
	ConditionStorm        Condition = "storm"
	ConditionWindy        Condition = "windy"
)

// Location is the place an upstream resolved a query to.
type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	TzID      string  `json:"tz_id,omitempty"`
	Localtime string  `json:"localtime,omitempty"`
}

// Place is the name used for cover image searches.
func (l Location) Place() string {
	if l.Region == "" {
		return l.Name
	}
	return l.Name + ", " + l.Region
}

// ConditionInfo is the upstream condition description.
type ConditionInfo struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// Current holds current conditions in metric units.
type Current struct {
	LastUpdated string        `json:"last_updated"`
	TempC       float64       `json:"temp_c"`
	FeelsLikeC  float64       `json:"feelslike_c"`
	IsDay       int           `json:"is_day"`
	Condition   ConditionInfo `json:"condition"`
	WindKph     float64       `json:"wind_kph"`
	WindDegree  float64       `json:"wind_degree"`
	WindDir     string        `json:"wind_dir"`
	GustKph     float64       `json:"gust_kph"`
	PressureMb  float64       `json:"pressure_mb"`
	PrecipMm    float64       `json:"precip_mm"`
	Humidity    float64       `json:"humidity"`
	Cloud       float64       `json:"cloud"`
	VisKm       float64       `json:"vis_km"`
	UV          float64       `json:"uv"`
}

// WeatherSnapshot is the normalized current-conditions view.
type WeatherSnapshot struct {
	Location  Location  `json:"location"`
	Current   Current   `json:"current"`
	Condition Condition `json:"normalizedCondition"`
}

// HourForecast is one hourly forecast entry.
type HourForecast struct {
	TimeEpoch int64         `json:"time_epoch"`
	Time      string        `json:"time"`
	TempC     float64       `json:"temp_c"`
	Condition ConditionInfo `json:"condition"`
}

// DaySummary aggregates one forecast day.
type DaySummary struct {
	MaxTempC          float64       `json:"maxtemp_c"`
	MinTempC          float64       `json:"mintemp_c"`
	AvgTempC          float64       `json:"avgtemp_c"`
	MaxWindKph        float64       `json:"maxwind_kph"`
	TotalPrecipMm     float64       `json:"totalprecip_mm"`
	AvgHumidity       float64       `json:"avghumidity"`
	DailyChanceOfRain float64       `json:"daily_chance_of_rain"`
	Condition         ConditionInfo `json:"condition"`
	UV                float64       `json:"uv"`
}

// ForecastDay is one day of a forecast.
type ForecastDay struct {
	Date      string         `json:"date"`
	DateEpoch int64          `json:"date_epoch"`
	Day       DaySummary     `json:"day"`
	Hour      []HourForecast `json:"hour"`
	Condition Condition      `json:"normalizedCondition"`
}

// Forecast is the normalized multi-day forecast, ordered by date ascending.
type Forecast struct {
	Location Location      `json:"location"`
	Days     []ForecastDay `json:"days"`
}

// ImageCandidate is one image returned by an image search provider.
type ImageCandidate struct {
	URL    string
	Width  int
	Height int
}

// ImageResult is the ranked list of cover image URLs. The first element is the cover.
type ImageResult []string

// Cover returns the first image, if any.
func (r ImageResult) Cover() (string, bool) {
	if len(r) == 0 {
		return "", false
	}
	return r[0], true
}

// ParseCurrent decodes a current-conditions payload into a snapshot.
func ParseCurrent(raw []byte) (WeatherSnapshot, error) {
	var payload struct {
		Location Location `json:"location"`
		Current  Current  `json:"current"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return WeatherSnapshot{}, fmt.Errorf("decode current weather: %w", err)
	}
	return WeatherSnapshot{
		Location:  payload.Location,
		Current:   payload.Current,
		Condition: ConditionFromCode(payload.Current.Condition.Code, payload.Current.Condition.Text),
	}, nil
}

// ParseForecast decodes a forecast payload.
func ParseForecast(raw []byte) (Forecast, error) {
	var payload struct {
		Location Location `json:"location"`
		Forecast struct {
			ForecastDay []ForecastDay `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}

	days := payload.Forecast.ForecastDay
	for i := range days {
		days[i].Condition = ConditionFromCode(days[i].Day.Condition.Code, days[i].Day.Condition.Text)
	}
	return Forecast{Location: payload.Location, Days: days}, nil
}

// conditionCodes groups WeatherAPI condition codes by icon family.
var conditionCodes = map[int]Condition{
	1000: ConditionClear,
	1003: ConditionPartlyCloudy,
	1006: ConditionCloudy, 1009: ConditionCloudy,
	1030: ConditionMist, 1135: ConditionMist, 1147: ConditionMist,
	1063: ConditionRain, 1072: ConditionRain, 1150: ConditionRain, 1153: ConditionRain,
	1168: ConditionRain, 1180: ConditionRain, 1183: ConditionRain, 1186: ConditionRain,
	1189: ConditionRain, 1198: ConditionRain, 1240: ConditionRain,
	1171: ConditionHeavyRain, 1192: ConditionHeavyRain, 1195: ConditionHeavyRain,
	1201: ConditionHeavyRain, 1243: ConditionHeavyRain, 1246: ConditionHeavyRain,
	1066: ConditionSnow, 1069: ConditionSnow, 1117: ConditionSnow, 1204: ConditionSnow,
	1207: ConditionSnow, 1210: ConditionSnow, 1213: ConditionSnow, 1216: ConditionSnow,
	1219: ConditionSnow, 1222: ConditionSnow, 1225: ConditionSnow, 1237: ConditionSnow,
	1249: ConditionSnow, 1252: ConditionSnow, 1255: ConditionSnow, 1258: ConditionSnow,
	1261: ConditionSnow, 1264: ConditionSnow,
	1114: ConditionWindy,
	1087: ConditionStorm, 1273: ConditionStorm, 1276: ConditionStorm,
	1279: ConditionStorm, 1282: ConditionStorm,
}

// ConditionFromCode maps an upstream condition code to a Condition, falling back
// to keywords in the description for unknown codes.
func ConditionFromCode(code int, text string) Condition {
	if c, ok := conditionCodes[code]; ok {
		return c
	}
	return conditionFromText(text)
}

func conditionFromText(text string) Condition {
	switch {
	case text == "":
		return ConditionUnknown
	case hasAny(text, "thunder", "storm"):
		return ConditionStorm
	case hasAny(text, "heavy rain", "torrential", "downpour"):
		return ConditionHeavyRain
	case hasAny(text, "rain", "shower", "drizzle"):
		return ConditionRain
	case hasAny(text, "snow", "sleet", "blizzard", "ice"):
		return ConditionSnow
	case hasAny(text, "fog", "mist", "haze"):
		return ConditionMist
	case hasAny(text, "partly"):
		return ConditionPartlyCloudy
	case hasAny(text, "cloud", "overcast"):
		return ConditionCloudy
	case hasAny(text, "wind", "gale"):
		return ConditionWindy
	case hasAny(text, "sunny", "clear"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}

// hasAny reports whether s contains any of subs, case-insensitively.
func hasAny(s string, subs ...string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
