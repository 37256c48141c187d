package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// compiledExpr is a pattern compiled down to one anchored regular
// expression, plus the group ranges that belong to each placeholder
// occurrence (in left-to-right order), used to extract positional
// arguments honoring the "first non-empty capture wins" rule for
// multi-alternation parameter types (spec §4.1, §9).
type compiledExpr struct {
	re    *regexp.Regexp
	slots []slot
}

// slot identifies the inclusive range of capturing-group indices (1-based,
// matching regexp.FindStringSubmatch indexing) that belong to one
// placeholder occurrence.
type slot struct {
	start, end int
}

func builtinParameterTypes() map[string][]string {
	return map[string][]string{
		"int":    {`(-?\d+)`},
		"float":  {`(-?\d+(?:\.\d+)?)`},
		"word":   {`(\S+)`},
		"string": {`"([^"\\]*)"`, `'([^']*)'`},
		"":       {`(.*)`}, // the bare `{}` placeholder
	}
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)?\}`)

// compileExpression expands a Cucumber Expression's placeholders
// ({int} {float} {word} {string} {} plus any custom parameterTypes) into one
// combined, anchored regular expression.
func compileExpression(pattern string, parameterTypes map[string][]string) (*compiledExpr, error) {
	var sb strings.Builder
	slots := make([]slot, 0, 4)
	groupCount := 0

	matches := placeholderRe.FindAllStringSubmatchIndex(pattern, -1)
	if len(matches) == 0 {
		return compileRawRegex(pattern)
	}
	last := 0

	for _, m := range matches {
		start, end := m[0], m[1]
		sb.WriteString(regexp.QuoteMeta(pattern[last:start]))

		var name string
		if m[2] >= 0 {
			name = pattern[m[2]:m[3]]
		}

		alts, ok := parameterTypes[name]
		if !ok {
			return nil, fmt.Errorf("unknown parameter type {%s}", name)
		}

		fragStart := groupCount + 1
		multi := len(alts) > 1
		if multi {
			sb.WriteString("(?:")
		}
		for i, alt := range alts {
			if i > 0 {
				sb.WriteString("|")
			}
			sb.WriteString(alt)
			groupCount += countCapturingGroups(alt)
		}
		if multi {
			sb.WriteString(")")
		}
		slots = append(slots, slot{start: fragStart, end: groupCount})

		last = end
	}
	sb.WriteString(regexp.QuoteMeta(pattern[last:]))

	body := sb.String()
	if !strings.HasPrefix(pattern, "^") {
		body = "^(?:" + body + ")$"
		// Account for the wrapping non-capturing group: it adds no groups.
	}

	re, err := regexp.Compile(body)
	if err != nil {
		return nil, err
	}
	return &compiledExpr{re: re, slots: slots}, nil
}

// compileRawRegex accepts an already-regex pattern (used by
// Registry.RegisterRegex), anchoring it if the caller did not, and treats
// every capturing group as its own one-group slot.
func compileRawRegex(source string) (*compiledExpr, error) {
	body := source
	if !strings.HasPrefix(source, "^") {
		body = "^(?:" + body + ")$"
	}

	re, err := regexp.Compile(body)
	if err != nil {
		return nil, err
	}

	n := re.NumSubexp()
	slots := make([]slot, n)
	for i := 0; i < n; i++ {
		slots[i] = slot{start: i + 1, end: i + 1}
	}
	return &compiledExpr{re: re, slots: slots}, nil
}

func tryCompileFragment(fragment string) (*regexp.Regexp, error) {
	return regexp.Compile(fragment)
}

// countCapturingGroups counts capturing groups in a regex fragment: every
// "(" not immediately followed by "?" is capturing, and so is a named group
// "(?P<name>"; any other "(?" group (non-capturing or flag groups) is not
// counted. An escaped "\(" or a "(" inside a character class is counted
// like any other "(", so fragments are expected to use plain capturing
// groups (as in the spec's own example).
func countCapturingGroups(fragment string) int {
	count := 0
	for i := 0; i < len(fragment); i++ {
		if fragment[i] != '(' {
			continue
		}
		if i+1 < len(fragment) && fragment[i+1] == '?' {
			// still count named groups "(?P<...>" as capturing
			if i+2 < len(fragment) && fragment[i+2] == 'P' {
				count++
			}
			continue
		}
		count++
	}
	return count
}

// extract pulls the positional argument values and any named captures out
// of a matched step text.
func (c *compiledExpr) extract(text string) (captures []string, named map[string]string) {
	sub := c.re.FindStringSubmatch(text)
	if sub == nil {
		return nil, nil
	}

	for _, s := range c.slots {
		value := ""
		for i := s.start; i <= s.end && i < len(sub); i++ {
			if sub[i] != "" {
				value = sub[i]
				break
			}
		}
		captures = append(captures, value)
	}

	names := c.re.SubexpNames()
	for i, n := range names {
		if n != "" && i < len(sub) && sub[i] != "" {
			if named == nil {
				named = make(map[string]string)
			}
			named[n] = sub[i]
		}
	}

	return captures, named
}
