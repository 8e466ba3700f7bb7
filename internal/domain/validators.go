package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var tokenRegex = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// ValidateToken checks a wager currency unit (e.g. "USDC", "GEMS").
func ValidateToken(token string) error {
	if !tokenRegex.MatchString(token) {
		return fmt.Errorf("invalid token: %s", token)
	}
	return nil
}

// ValidatePositiveAmount checks that an amount in minor units is positive.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateFee checks that a bookmaking fee is a fraction in [0, 1).
func ValidateFee(fee float64) error {
	if fee < 0 || fee >= 1 {
		return fmt.Errorf("bookmaking fee must be in [0, 1), got %g", fee)
	}
	return nil
}

// ValidateWeight checks a fixed-odds multiplier.
func ValidateWeight(weight float64) error {
	if weight < 1.0 {
		return fmt.Errorf("outcome weight must be at least 1.0, got %g", weight)
	}
	return nil
}

// ParsePredictedScore extracts the numeric prediction from a score-market
// outcome label. Labels are plain numbers, optionally with surrounding text
// ("52 kills" parses as 52).
func ParsePredictedScore(label string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty outcome label")
	}
	score, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("outcome label %q does not start with a number", label)
	}
	return score, nil
}
