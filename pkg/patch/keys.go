package patch

import (
	"regexp"
	"strings"
)

var snakeSegment = regexp.MustCompile(`(?i)_+([a-z0-9])`)

// SnakeToCamel converts snake_case API keys to camelCase state keys, for use
// with WithKeyTransform. Runs of underscores collapse; a trailing underscore
// is kept.
//
//	SnakeToCamel("cache_hit_latency") == "cacheHitLatency"
func SnakeToCamel(key string) string {
	return snakeSegment.ReplaceAllStringFunc(key, func(m string) string {
		return strings.ToUpper(m[len(m)-1:])
	})
}
