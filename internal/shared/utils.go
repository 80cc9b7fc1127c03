package shared

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseBoolQuery parses a boolean query parameter, returning def when absent or unparsable
func ParseBoolQuery(c *gin.Context, key string, def bool) bool {
	value := c.Query(key)
	if value == "" {
		return def
	}

	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}

// ParseIntQuery parses an integer query parameter, returning def when absent
func ParseIntQuery(c *gin.Context, key string, def int) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return def, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

// ParseListQuery collects a list parameter given either repeated (?c=a&c=b) or comma separated (?c=a,b)
func ParseListQuery(c *gin.Context, key string) []string {
	var out []string
	for _, value := range c.QueryArray(key) {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
