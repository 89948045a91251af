package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DeadlineLayout is the dd/mm/yyyy form used by every entry deadline.
const DeadlineLayout = "02/01/2006"

var (
	ErrInvalidMonthKey = errors.New("invalid month key")

	deadlinePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// ParseMonthKey splits a canonical YYYY-MM key.
func ParseMonthKey(key string) (year, month int, err error) {
	if !monthKeyPattern.MatchString(key) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	year, _ = strconv.Atoi(key[:4])
	month, _ = strconv.Atoi(key[5:])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	return year, month, nil
}

// MonthKey formats a year and month as YYYY-MM.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// CurrentMonthKey returns the key of the month containing now.
func CurrentMonthKey(now time.Time) string {
	return MonthKey(now.Year(), int(now.Month()))
}

// PreviousMonthKey steps one month back, rolling 01 over to 12 of the prior year.
func PreviousMonthKey(key string) (string, error) {
	return shiftMonthKey(key, -1)
}

// NextMonthKey steps one month forward.
func NextMonthKey(key string) (string, error) {
	return shiftMonthKey(key, 1)
}

func shiftMonthKey(key string, delta int) (string, error) {
	year, month, err := ParseMonthKey(key)
	if err != nil {
		return "", err
	}
	t := time.Date(year, time.Month(month)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return MonthKey(t.Year(), int(t.Month())), nil
}

// MonthLabel renders a key as "janeiro 2024".
func MonthLabel(key string) string {
	year, month, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d", monthNames[month-1], year)
}

// MonthLabelShort renders a key as "jan 2024".
func MonthLabelShort(key string) string {
	year, month, err := ParseMonthKey(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d", string([]rune(monthNames[month-1])[:3]), year)
}

func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AdjustDeadline moves a dd/mm/yyyy deadline into targetMonth (YYYY-MM),
// keeping the day and clamping it to the target month's last day.
// Anything that is not a strict dd/mm/yyyy string, or an unusable target,
// is returned unchanged.
func AdjustDeadline(deadline, targetMonth string) string {
	if !deadlinePattern.MatchString(deadline) {
		return deadline
	}
	year, month, err := ParseMonthKey(targetMonth)
	if err != nil {
		return deadline
	}

	day, _ := strconv.Atoi(deadline[:2])
	last := lastDayOfMonth(year, month)
	if day < 1 || day > last {
		day = last
	}
	return fmt.Sprintf("%02d/%02d/%04d", day, month, year)
}

// ParseDeadline parses a strict dd/mm/yyyy deadline as a UTC date.
func ParseDeadline(s string) (time.Time, bool) {
	if !deadlinePattern.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(DeadlineLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDeadline renders t as dd/mm/yyyy.
func FormatDeadline(t time.Time) string {
	return t.Format(DeadlineLayout)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
