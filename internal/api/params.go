package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/pai-progress/internal/progress"
	"github.com/p-n-ai/pai-progress/internal/tracker"
)

// heatmapPeriodDays is the default heatmap window: one year.
const heatmapPeriodDays = 365

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, tracker.ErrInvalid)
	}
	return n, nil
}

// period reads ?period=, checking it is an accepted window length.
func period(r *http.Request, fallback int) (int, error) {
	days, err := queryInt(r, "period", fallback)
	if err != nil {
		return 0, err
	}
	if err := tracker.ValidPeriod(days); err != nil {
		return 0, err
	}
	return days, nil
}

// asOf reads ?asOf=YYYY-MM-DD. A missing value yields the zero time, which the
// service resolves to today.
func asOf(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("asOf")
	if v == "" {
		return time.Time{}, nil
	}
	d, err := progress.ParseDay(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("asOf must be YYYY-MM-DD: %w", tracker.ErrInvalid)
	}
	return d, nil
}

// optionalDay parses a YYYY-MM-DD body field; "" yields the zero time.
func optionalDay(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	d, err := progress.ParseDay(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a valid YYYY-MM-DD date: %w", field, tracker.ErrInvalid)
	}
	return d, nil
}
