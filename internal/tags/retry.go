package tags

import (
	"regexp"
	"strconv"
	"time"
)

// retryTagRe matches the reserved @retry family: @retry, @retry(N),
// @retry.after(D), @retry(N).after(D).
var retryTagRe = regexp.MustCompile(`^@retry(?:\((\d+)\))?(?:\.after\(([^)]+)\))?$`)

// Defaults carries the --retry/--retry-after/--retry-tag-filter CLI values
// (spec §3 RetryPolicy, §6).
type Defaults struct {
	Count  uint32
	After  time.Duration
	Filter Expr
}

// ResolvePolicy computes a scenario's retry count and delay from its
// effective tags and the CLI defaults, in the precedence order of spec §3:
// explicit @retry(N).after(D), then @retry(N), then @retry.after(D), then a
// bare @retry (CLI defaults), then the CLI flags alone (gated by
// --retry-tag-filter).
func ResolvePolicy(effective []string, defaults Defaults) (count uint32, after time.Duration) {
	for _, t := range effective {
		m := retryTagRe.FindStringSubmatch(t)
		if m == nil {
			continue
		}

		n := defaults.Count
		if m[1] != "" {
			if v, err := strconv.ParseUint(m[1], 10, 32); err == nil {
				n = uint32(v)
			}
		}

		d := defaults.After
		if m[2] != "" {
			if v, err := time.ParseDuration(m[2]); err == nil {
				d = v
			}
		}

		return n, d
	}

	if defaults.Filter != nil && defaults.Filter.Matches(effective) {
		return defaults.Count, defaults.After
	}

	return 0, 0
}
