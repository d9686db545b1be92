package daterange

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidRange = errors.New("daterange: checkout must be after checkin")

// DateRange is a stay interval from check-in to check-out.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts billable nights, rounding partial days up.
func (dr DateRange) Nights() int {
	return int(math.Ceil(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24))
}

// ContainsDate reports whether t falls inside the range, inclusive on both ends.
func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return !t.Before(dr.CheckIn) && !t.After(dr.CheckOut)
}

// Conflicts applies the closed-interval overlap test: the ranges conflict if
// either endpoint of dr falls inside other, or other is fully contained in dr.
// Back-to-back stays sharing a boundary date conflict, which sidesteps
// same-day turnover ambiguity.
func (dr DateRange) Conflicts(other DateRange) bool {
	return other.ContainsDate(dr.CheckIn) ||
		other.ContainsDate(dr.CheckOut) ||
		(!dr.CheckIn.After(other.CheckIn) && !dr.CheckOut.Before(other.CheckOut))
}

// DaysUntil returns the number of days from now until check-in, rounded up.
// Negative when check-in is already past.
func (dr DateRange) DaysUntil(now time.Time) int {
	return int(math.Ceil(dr.CheckIn.Sub(now.UTC()).Hours() / 24))
}
