package normalizer

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"MarketDash/internal/model"
)

// Alpha Vantage TIME_SERIES_DAILY field labels.
const (
	BarOpenField   = "1. open"
	BarHighField   = "2. high"
	BarLowField    = "3. low"
	BarCloseField  = "4. close"
	BarVolumeField = "5. volume"
)

// SeriesResult is the outcome of normalizing one daily series payload.
// Volume is projected from Series; Dropped holds one error per skipped entry.
type SeriesResult struct {
	Series  model.TimeSeries
	Volume  model.VolumeSeries
	Dropped []error
}

// DroppedErr joins the per-entry errors, or returns nil when nothing was dropped.
func (r SeriesResult) DroppedErr() error {
	return errors.Join(r.Dropped...)
}

// Daily converts a date-keyed TIME_SERIES_DAILY map into an ascending
// series. Malformed entries are dropped and reported, never fatal.
func Daily(raw map[string]map[string]string) (SeriesResult, error) {
	if len(raw) == 0 {
		return SeriesResult{}, ErrEmptyPayload
	}

	type keyed struct {
		key string
		bar model.DailyBar
	}
	byDate := make(map[time.Time]keyed, len(raw))
	var dropped []error
	for date, fields := range raw {
		bar, err := parseBar(date, fields)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		// keys differing only in padding parse to the same day; keep the
		// canonical key, else the smallest, so the choice is stable
		if prev, ok := byDate[bar.Date]; ok {
			keep, drop := prev, keyed{date, bar}
			if preferKey(date, prev.key, bar.Date) {
				keep, drop = drop, keep
			}
			byDate[bar.Date] = keep
			dropped = append(dropped, fmt.Errorf("%w: %q: duplicate of %q", ErrMalformedBar, drop.key, keep.key))
			continue
		}
		byDate[bar.Date] = keyed{date, bar}
	}

	bars := make(model.TimeSeries, 0, len(byDate))
	for _, k := range byDate {
		bars = append(bars, k.bar)
	}

	// the provider sends most-recent-first; map order is random anyway
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].Error() < dropped[j].Error() })

	return SeriesResult{
		Series:  bars,
		Volume:  model.VolumeOf(bars),
		Dropped: dropped,
	}, nil
}

// preferKey reports whether key a should win over key b for day.
func preferKey(a, b string, day time.Time) bool {
	canonical := day.Format(model.DateLayout)
	if (a == canonical) != (b == canonical) {
		return a == canonical
	}
	return a < b
}

func parseBar(date string, fields map[string]string) (model.DailyBar, error) {
	day, err := time.Parse(model.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return model.DailyBar{}, fmt.Errorf("%w: %s: bad date: %v", ErrMalformedBar, date, err)
	}

	var prices [4]decimal.Decimal
	for i, key := range []string{BarOpenField, BarHighField, BarLowField, BarCloseField} {
		s, ok := fields[key]
		if !ok {
			return model.DailyBar{}, fmt.Errorf("%w: %s: missing %q", ErrMalformedBar, date, key)
		}
		d, err := parseDecimal(strings.TrimSpace(s))
		if err != nil {
			return model.DailyBar{}, fmt.Errorf("%w: %s: %q: %v", ErrMalformedBar, date, key, err)
		}
		prices[i] = d
	}

	volume, err := parseVolume(fields[BarVolumeField])
	if err != nil {
		return model.DailyBar{}, fmt.Errorf("%w: %s: %q: %v", ErrMalformedBar, date, BarVolumeField, err)
	}

	bar := model.DailyBar{
		Date:   day,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: volume,
	}
	if err := bar.Validate(); err != nil {
		return model.DailyBar{}, fmt.Errorf("%w: %s: %v", ErrMalformedBar, date, err)
	}
	return bar, nil
}

// parseVolume accepts integers and integral decimals such as "1200.0".
func parseVolume(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("fractional volume %s", d)
	}
	return d.IntPart(), nil
}
