package calendar

import (
	"errors"
	"time"
)

var ErrInvalidInterval = errors.New("interval start must be before end")

// Interval — полуоткрытый временной интервал [Start, End).
// Конструируется только через NewInterval, поэтому Start < End всегда.
type Interval struct {
	start time.Time
	end   time.Time
}

// NewInterval проверяет start < end. Нулевые и перевёрнутые интервалы отклоняются.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, ErrInvalidInterval
	}
	if !start.Before(end) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{start: start, end: end}, nil
}

// MustInterval — для тестов и констант.
func MustInterval(start, end time.Time) Interval {
	iv, err := NewInterval(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

func (iv Interval) Start() time.Time { return iv.start }

func (iv Interval) End() time.Time { return iv.end }

func (iv Interval) Duration() time.Duration { return iv.end.Sub(iv.start) }

// Overlaps: a.Start < b.End && b.Start < a.End.
// Интервалы, касающиеся только концами, не пересекаются.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.start.Before(other.end) && other.start.Before(iv.end)
}

// UTC приводит границы к UTC и обрезает до микросекунд (точность timestamptz).
func (iv Interval) UTC() (Interval, error) {
	return NewInterval(
		iv.start.UTC().Truncate(time.Microsecond),
		iv.end.UTC().Truncate(time.Microsecond),
	)
}
