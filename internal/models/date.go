package models

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// PartialDate is an upstream date where only the year is guaranteed.
// Zero Month or Day means the field was absent.
type PartialDate struct {
	Year  int
	Month int
	Day   int
}

// DateRange is an optional start and end. A nil End means "present".
type DateRange struct {
	Start *PartialDate
	End   *PartialDate
}

// ParsePartialDate reads a {year, month?, day?} object.
func ParsePartialDate(v gjson.Result) (PartialDate, error) {
	if !v.IsObject() {
		return PartialDate{}, fmt.Errorf("date is not an object")
	}
	year := v.Get("year")
	if !year.Exists() {
		return PartialDate{}, fmt.Errorf("date is missing year")
	}
	d := PartialDate{
		Year:  int(year.Int()),
		Month: int(v.Get("month").Int()),
		Day:   int(v.Get("day").Int()),
	}
	if d.Month < 0 || d.Month > 12 {
		return PartialDate{}, fmt.Errorf("month %d out of range", d.Month)
	}
	if d.Day < 0 || d.Day > 31 {
		return PartialDate{}, fmt.Errorf("day %d out of range", d.Day)
	}
	if d.Day != 0 && d.Month == 0 {
		return PartialDate{}, fmt.Errorf("day without month")
	}
	return d, nil
}

// ParseDateRange reads a {startDate?, endDate?} object.
func ParseDateRange(v gjson.Result) (DateRange, error) {
	var r DateRange
	if !v.IsObject() {
		return r, fmt.Errorf("time period is not an object")
	}
	if s := v.Get("startDate"); s.Exists() {
		d, err := ParsePartialDate(s)
		if err != nil {
			return r, fmt.Errorf("startDate: %w", err)
		}
		r.Start = &d
	}
	if e := v.Get("endDate"); e.Exists() {
		d, err := ParsePartialDate(e)
		if err != nil {
			return r, fmt.Errorf("endDate: %w", err)
		}
		r.End = &d
	}
	return r, nil
}
