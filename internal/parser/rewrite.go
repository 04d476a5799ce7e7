package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidReplace is returned when a replacement template is malformed.
var ErrInvalidReplace = errors.New("invalid replacement template")

// Rewriter reshapes raw lines with a regex and a replacement template so
// that the timestamp comes first.
//
// The template is literal text where $$ inserts a dollar sign and ${n}
// inserts capture group n (0 is the whole match). Lines the regex does not
// match pass through unchanged.
type Rewriter struct {
	re    *regexp.Regexp
	parts []string // always len(refs)+1
	refs  []int
}

// NewRewriter compiles match and replace into a Rewriter.
func NewRewriter(match, replace string) (*Rewriter, error) {
	re, err := regexp.Compile(match)
	if err != nil {
		return nil, fmt.Errorf("compiling match pattern %q: %w", match, err)
	}

	parts, refs, err := compileTemplate(replace)
	if err != nil {
		return nil, err
	}

	for _, ref := range refs {
		if ref > re.NumSubexp() {
			return nil, fmt.Errorf("%w: ${%d} refers past the %d capture group(s) of %q",
				ErrInvalidReplace, ref, re.NumSubexp(), match)
		}
	}

	return &Rewriter{re: re, parts: parts, refs: refs}, nil
}

// Apply rewrites line when the pattern matches it.
func (r *Rewriter) Apply(line string) string {
	loc := r.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return line
	}

	var b strings.Builder
	for i, ref := range r.refs {
		b.WriteString(r.parts[i])
		start, end := loc[2*ref], loc[2*ref+1]
		if start >= 0 {
			b.WriteString(line[start:end])
		}
	}
	b.WriteString(r.parts[len(r.parts)-1])

	return b.String()
}

// compileTemplate splits a replacement template into literal parts
// interleaved with capture references.
func compileTemplate(tmpl string) ([]string, []int, error) {
	var (
		parts []string
		refs  []int
		lit   strings.Builder
	)

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' {
			lit.WriteByte(c)
			continue
		}

		switch {
		case i+1 < len(tmpl) && tmpl[i+1] == '$':
			lit.WriteByte('$')
			i++

		case i+2 < len(tmpl) && tmpl[i+1] == '{' && isDigit(tmpl[i+2]):
			closing := strings.IndexByte(tmpl[i+2:], '}')
			if closing < 0 {
				return nil, nil, fmt.Errorf("%w: open brace on capture needs a closing brace", ErrInvalidReplace)
			}
			number := tmpl[i+2 : i+2+closing]
			n, err := strconv.Atoi(number)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: capture %q should only be specified by digits", ErrInvalidReplace, number)
			}

			parts = append(parts, lit.String())
			lit.Reset()
			refs = append(refs, n)
			i += 2 + closing

		default:
			return nil, nil, fmt.Errorf("%w: a dollar sign at offset %d must escape a capture or another dollar sign", ErrInvalidReplace, i)
		}
	}

	parts = append(parts, lit.String())
	return parts, refs, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
