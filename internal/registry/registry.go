// Package registry implements the step registry and matcher described in
// spec §4.1: it stores matchers keyed by step kind and resolves a step's
// text to at-most-one callback with captured arguments.
package registry

import (
	"fmt"
	"sync"
)

// Kind mirrors ast.Kind without importing it, so this package stays usable
// standalone (it only needs Given/When/Then, never And/But).
type Kind int

const (
	Given Kind = iota
	When
	Then
)

func (k Kind) String() string {
	switch k {
	case Given:
		return "Given"
	case When:
		return "When"
	case Then:
		return "Then"
	default:
		return "Unknown"
	}
}

// Registration is one compiled matcher: a pattern plus the callback it
// dispatches to.
type Registration struct {
	Kind     Kind
	Source   string
	Callback interface{}

	regex *compiledExpr
}

// MatchStatus is the outcome of Find.
type MatchStatus int

const (
	NoMatch MatchStatus = iota
	OneMatch
	Ambiguous
)

// FindResult is the result of resolving step text against the registry.
type FindResult struct {
	Status       MatchStatus
	Registration *Registration
	Captures     []string
	Named        map[string]string
	Conflicting  []*Registration
}

// Registry is the read-after-registration-phase collection of matchers,
// one set per step kind (spec: "The step registry is read-only after
// startup (write-locked during registration phase, read-locked
// thereafter)").
type Registry struct {
	mu             sync.RWMutex
	byKind         map[Kind][]*Registration
	parameterTypes map[string][]string
}

// New creates an empty registry with the built-in parameter types
// registered ({int}, {float}, {word}, {string}, {}).
func New() *Registry {
	r := &Registry{
		byKind:         make(map[Kind][]*Registration),
		parameterTypes: make(map[string][]string),
	}
	for name, alts := range builtinParameterTypes() {
		r.parameterTypes[name] = alts
	}
	return r
}

// AddParameterType registers a custom Cucumber Expression parameter type.
// alternatives is a list of regex fragments; when the fragment contains
// more than one capturing group (e.g. to express several alternative forms
// for one semantic type: "(hungry)|(satiated)|'([^']*)'"), only the first
// non-empty captured group contributes the matched text at runtime (spec
// §4.1, §9).
func (r *Registry) AddParameterType(name string, alternatives []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, alt := range alternatives {
		if _, err := tryCompileFragment(alt); err != nil {
			return fmt.Errorf("parameter type %q: invalid fragment %q: %w", name, alt, err)
		}
	}

	r.parameterTypes[name] = append(append([]string{}, r.parameterTypes[name]...), alternatives...)
	return nil
}

// RegisterExpression compiles a Cucumber Expression (or a bare regular
// expression literal containing no placeholders) and stores it under kind.
// Registration fails if the pattern does not compile (spec §4.1).
func (r *Registry) RegisterExpression(kind Kind, pattern string, callback interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	compiled, err := compileExpression(pattern, r.parameterTypes)
	if err != nil {
		return fmt.Errorf("step pattern %q: %w", pattern, err)
	}

	r.byKind[kind] = append(r.byKind[kind], &Registration{
		Kind:     kind,
		Source:   pattern,
		Callback: callback,
		regex:    compiled,
	})
	return nil
}

// RegisterRegex stores a raw, already-compiled regular expression as a
// matcher, anchoring it if the caller didn't.
func (r *Registry) RegisterRegex(kind Kind, source string, callback interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	compiled, err := compileRawRegex(source)
	if err != nil {
		return fmt.Errorf("step regex %q: %w", source, err)
	}

	r.byKind[kind] = append(r.byKind[kind], &Registration{
		Kind:     kind,
		Source:   source,
		Callback: callback,
		regex:    compiled,
	})
	return nil
}

// Find resolves step text to at-most-one matcher within kind.
func (r *Registry) Find(kind Kind, text string) FindResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*Registration
	for _, reg := range r.byKind[kind] {
		if reg.regex.re.MatchString(text) {
			matches = append(matches, reg)
		}
	}

	switch len(matches) {
	case 0:
		return FindResult{Status: NoMatch}
	case 1:
		captures, named := matches[0].regex.extract(text)
		return FindResult{Status: OneMatch, Registration: matches[0], Captures: captures, Named: named}
	default:
		return FindResult{Status: Ambiguous, Conflicting: matches}
	}
}

// Count returns how many matchers are registered for kind, for
// diagnostics/tests.
func (r *Registry) Count(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKind[kind])
}
