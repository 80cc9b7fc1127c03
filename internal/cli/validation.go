package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

var providers = []string{"sqlite", "postgres", "mongodb", "file"}

// validateProvider validates the record source provider
func validateProvider(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, p := range providers {
		if input == p {
			return input, nil
		}
	}
	return "", fmt.Errorf("invalid provider: %s (must be one of %s)", input, strings.Join(providers, ", "))
}

// validateCronExpression validates a refresh schedule; empty disables refreshing
func validateCronExpression(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	if _, err := cron.ParseStandard(input); err != nil {
		return "", fmt.Errorf("invalid cron expression: %s (%v)", input, err)
	}
	return input, nil
}

// validateNumber validates numeric input within a range
func validateNumber(input string, min, max int) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return min, nil
	}

	num, err := strconv.Atoi(input)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s (enter a positive integer)", input)
	}

	if num < min || num > max {
		return 0, fmt.Errorf("number must be between %d and %d, got: %d", min, max, num)
	}

	return num, nil
}

// parseCategories splits a comma separated category whitelist
func parseCategories(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// maskURI hides the password part of a connection string
func maskURI(uri string) string {
	schemeEnd := strings.Index(uri, "://")
	at := strings.LastIndex(uri, "@")
	if schemeEnd < 0 || at < schemeEnd {
		return uri
	}
	creds := uri[schemeEnd+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return uri
	}
	return uri[:schemeEnd+3] + creds[:colon] + ":***" + uri[at:]
}
