package workingdays

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidYear  = errors.New("year must have four digits")
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrInvalidDays  = errors.New("working days must be between 0 and 31")
)

// Data maps a year ("2025") to the working-day count of each month (1..12).
type Data map[string]map[int]int

// Validate checks every year key, month and day count.
func (d Data) Validate() error {
	for year, months := range d {
		if !validYear(year) {
			return fmt.Errorf("%q: %w", year, ErrInvalidYear)
		}
		for month, days := range months {
			if month < 1 || month > 12 {
				return fmt.Errorf("%s/%d: %w", year, month, ErrInvalidMonth)
			}
			if days < 0 || days > 31 {
				return fmt.Errorf("%s/%d: %w", year, month, ErrInvalidDays)
			}
		}
	}
	return nil
}

func validYear(year string) bool {
	if len(year) != 4 {
		return false
	}
	_, err := strconv.Atoi(year)
	return err == nil && year[0] != '-' && year[0] != '+'
}

// DaysFor returns the working days recorded for the month.
func (d Data) DaysFor(year, month int) (int, bool) {
	months, ok := d[strconv.Itoa(year)]
	if !ok {
		return 0, false
	}
	days, ok := months[month]
	return days, ok
}

// Set records the count for one month, creating the year when needed.
func (d Data) Set(year, month, days int) error {
	key := strconv.Itoa(year)
	if !validYear(key) {
		return fmt.Errorf("%q: %w", key, ErrInvalidYear)
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if days < 0 || days > 31 {
		return ErrInvalidDays
	}
	if d[key] == nil {
		d[key] = map[int]int{}
	}
	d[key][month] = days
	return nil
}

// DaysWorked is the month's working days minus leave, never negative.
func DaysWorked(workingDays, medicalDays, restDays float64) float64 {
	return max(0, workingDays-medicalDays-restDays)
}
