package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// weatherURL builds the Open-Meteo request: current conditions plus
// today's range and rain, imperial units, no API key needed.
func weatherURL(lat, lon float64) string {
	return fmt.Sprintf("https://api.open-meteo.com/v1/forecast"+
		"?latitude=%.4f&longitude=%.4f"+
		"&current=temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m,wind_direction_10m,uv_index"+
		"&daily=temperature_2m_max,temperature_2m_min,precipitation_sum"+
		"&temperature_unit=fahrenheit&wind_speed_unit=mph&precipitation_unit=inch"+
		"&timezone=auto&forecast_days=1", lat, lon)
}

type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    int     `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		WindDir     float64 `json:"wind_direction_10m"`
		UVIndex     float64 `json:"uv_index"`
	} `json:"current"`
	Daily struct {
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		Precipitation []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

func fetchWeather(lat, lon float64) (WeatherData, error) {
	resp, err := http.Get(weatherURL(lat, lon))
	if err != nil {
		return WeatherData{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return WeatherData{}, fmt.Errorf("open-meteo status %s", resp.Status)
	}

	var result openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return WeatherData{}, err
	}

	w := WeatherData{
		TempF:    result.Current.Temperature,
		UVIndex:  result.Current.UVIndex,
		Summary:  weatherSummary(result.Current.WeatherCode),
		Humidity: result.Current.Humidity,
		WindMPH:  result.Current.WindSpeed,
		WindDir:  windCompass(result.Current.WindDir),
	}
	if len(result.Daily.TempMax) > 0 {
		w.HighF = result.Daily.TempMax[0]
	}
	if len(result.Daily.TempMin) > 0 {
		w.LowF = result.Daily.TempMin[0]
	}
	if len(result.Daily.Precipitation) > 0 {
		w.Rain24h = result.Daily.Precipitation[0]
	}
	return w, nil
}

// weatherSummary maps WMO weather codes to a short phrase.
func weatherSummary(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 2:
		return "Partly cloudy"
	case code == 3:
		return "Overcast"
	case code == 45 || code == 48:
		return "Foggy"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67:
		return "Rainy"
	case code >= 71 && code <= 77:
		return "Snowy"
	case code >= 80 && code <= 82:
		return "Rain showers"
	case code >= 95:
		return "Thunderstorm"
	}
	return "Changeable"
}

// windCompass turns degrees into an 8-point compass direction.
func windCompass(deg float64) string {
	points := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := int((deg+22.5)/45) % 8
	if idx < 0 {
		idx += 8
	}
	return points[idx]
}

// collectWeather refreshes the weather snapshot; scheduled on the cron.
func collectWeather() {
	w, err := fetchWeather(cfg.Latitude, cfg.Longitude)
	if err != nil {
		log.Printf("weather: fetch failed: %v", err)
		return
	}
	updateData(func(d *DisplayData) { d.Weather = w })
}
