package server

import (
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/tiercache/cache"
	"github.com/jonwraymond/tiercache/observe"
)

// ForecastTTL is how long a generated forecast stays cached.
const ForecastTTL = time.Minute

var summaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild", "Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// Forecast is the demo payload of GET /weather/{id}.
type Forecast struct {
	Date         time.Time `json:"date"`
	TemperatureC int       `json:"temperatureC"`
	TemperatureF int       `json:"temperatureF"`
	Summary      string    `json:"summary"`
}

// NewForecast builds the forecast for id. Temperature and summary depend
// only on id; the date is id days after now.
func NewForecast(id int, now time.Time) Forecast {
	rng := rand.New(rand.NewPCG(uint64(id), 0))
	c := rng.IntN(75) - 20
	return Forecast{
		Date:         now.AddDate(0, 0, id),
		TemperatureC: c,
		TemperatureF: 32 + int(float64(c)/0.5556),
		Summary:      summaries[rng.IntN(len(summaries))],
	}
}

// WeatherKey returns the cache key of forecast id.
func WeatherKey(id int) string {
	return "weather:" + strconv.Itoa(id)
}

func (s *Server) getWeather(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	ctx := r.Context()
	scope := cache.ScopeFromContext(ctx)
	key := WeatherKey(id)

	if f, ok := cache.Get[Forecast](ctx, s.cache, scope, key); ok {
		writeJSON(w, http.StatusOK, f)
		return
	}

	f := NewForecast(id, s.clock.Now())
	if err := cache.Set(ctx, s.cache, scope, key, f, ForecastTTL); err != nil {
		s.logger.Warn(ctx, "forecast not cached",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	writeJSON(w, http.StatusOK, f)
}
