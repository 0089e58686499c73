package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// maxDeliveryMinutes caps advertised durations at one day.
const maxDeliveryMinutes = 24 * 60

var deliveryDurationPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:\s*(?:-|–|to)\s*(\d+(?:\.\d+)?))?\s*([a-z]*)$`)

// ParseDeliveryMinutes converts advertised durations such as "30-45 mins", "1 hour"
// or "1-2 hours" to minutes. A range resolves to its upper bound and a bare number
// is read as minutes.
func ParseDeliveryMinutes(s string) (int, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	m := deliveryDurationPattern.FindStringSubmatch(normalized)
	if m == nil {
		return 0, fmt.Errorf("delivery duration[%s]: %w", s, ErrInvalidInput)
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("strconv.ParseFloat[%s]: %w", m[1], ErrInvalidInput)
	}
	if m[2] != "" {
		upper, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, fmt.Errorf("strconv.ParseFloat[%s]: %w", m[2], ErrInvalidInput)
		}
		n = math.Max(n, upper)
	}

	switch m[3] {
	case "", "m", "min", "mins", "minute", "minutes":
	case "h", "hr", "hrs", "hour", "hours":
		n *= 60
	default:
		return 0, fmt.Errorf("delivery duration unit[%s]: %w", m[3], ErrInvalidInput)
	}

	if n > maxDeliveryMinutes {
		return 0, fmt.Errorf("delivery duration[%s] exceeds %d minutes: %w", s, maxDeliveryMinutes, ErrInvalidInput)
	}

	minutes := int(math.Ceil(n))
	if minutes <= 0 {
		return 0, fmt.Errorf("delivery duration[%s] is not positive: %w", s, ErrInvalidInput)
	}

	return minutes, nil
}
