package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultMonth is the month preselected by the dashboard.
const DefaultMonth = time.August

// MonthNames lists the selectable months in calendar order.
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// ParseMonth maps an English month name (any case) to its ordinal.
func ParseMonth(name string) (time.Month, error) {
	n := strings.TrimSpace(name)
	for i, m := range MonthNames {
		if strings.EqualFold(m, n) {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, name)
}
