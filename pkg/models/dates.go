package models

import "time"

// DateLayout is the canonical text form of a trading date
const DateLayout = "2006-01-02"

// DayKey identifies one stock on one trading date
type DayKey struct {
	Stock string
	Date  time.Time
}

// Less orders keys by stock, then date
func (k DayKey) Less(other DayKey) bool {
	if k.Stock != other.Stock {
		return k.Stock < other.Stock
	}
	return k.Date.Before(other.Date)
}

// TruncateDay returns the calendar date of t as observed in loc, at UTC midnight.
// A nil loc keeps t's own location.
func TruncateDay(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FixedOffset returns a zone for a whole-hour UTC offset such as -4
func FixedOffset(hours int) *time.Location {
	return time.FixedZone("", hours*3600)
}
