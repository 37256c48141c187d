package ast

import "fmt"

// ResolveKinds resolves And/But keywords against the most recently seen
// Given/When/Then kind within steps, in place. The first step in the slice
// must use an explicit Given/When/Then keyword; an And/But there is a hard
// error (spec: "the first step of a scenario is a hard error if it uses
// And/But"). Background steps are resolved independently of scenario steps,
// each starting with no prior kind.
func ResolveKinds(steps []Step) error {
	var last Kind = KindUnresolved

	for i := range steps {
		kw := normalizeKeyword(steps[i].Keyword)

		switch kw {
		case "given":
			last = Given
		case "when":
			last = When
		case "then":
			last = Then
		case "and", "but", "*":
			if last == KindUnresolved {
				return fmt.Errorf("step %d (%q): And/But cannot be the first step", i, steps[i].Text)
			}
			// kind stays as last
		default:
			return fmt.Errorf("step %d (%q): unrecognized keyword %q", i, steps[i].Text, steps[i].Keyword)
		}

		steps[i].Kind = last
	}

	return nil
}

func normalizeKeyword(kw string) string {
	switch trimmed(kw) {
	case "Given":
		return "given"
	case "When":
		return "when"
	case "Then":
		return "then"
	case "And":
		return "and"
	case "But":
		return "but"
	case "*":
		return "*"
	default:
		return trimmed(kw)
	}
}

func trimmed(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
