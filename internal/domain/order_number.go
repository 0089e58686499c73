package domain

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"
)

const DefaultOrderNumberPrefix = "FZ"

var orderNumberPrefixPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// OrderNumberGenerator builds human-readable order numbers of the form
// <prefix><last 8 digits of unix millis><3 random digits>. Numbers are not
// guaranteed unique; inserts must retry with a fresh number on conflict.
type OrderNumberGenerator struct {
	prefix string
	intN   func(n int) int
}

func NewOrderNumberGenerator(prefix string, intN func(n int) int) (OrderNumberGenerator, error) {
	if !orderNumberPrefixPattern.MatchString(prefix) {
		return OrderNumberGenerator{}, fmt.Errorf("order number prefix[%s] must be two capital letters: %w", prefix, ErrInvalidInput)
	}
	if intN == nil {
		intN = rand.IntN
	}

	return OrderNumberGenerator{prefix: prefix, intN: intN}, nil
}

func (g OrderNumberGenerator) Next(now time.Time) string {
	return fmt.Sprintf("%s%08d%03d", g.prefix, now.UnixMilli()%100_000_000, g.intN(1000))
}
