// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package accesslog

// DefaultFormat is the format used when WithFormat is not given.
//
// Example output:
//
//	127.0.0.1:54278 "GET /test HTTP/1.1" 404 20 "-" "HTTPie/2.2.0" 0.001074
const DefaultFormat = `%a "%r" %s %b "%{Referer}i" "%{User-Agent}i" %T`

// tokenKind identifies what a format token resolves from.
type tokenKind uint8

const (
	kindText           tokenKind = iota // literal text
	kindPercent                         // %%
	kindRemoteAddr                      // %a
	kindRealIP                          // %{r}a
	kindRequestTime                     // %t
	kindRequestLine                     // %r
	kindStatus                          // %s
	kindSize                            // %b
	kindPath                            // %U
	kindSeconds                         // %T
	kindMillis                          // %D
	kindRequestHeader                   // %{NAME}i
	kindResponseHeader                  // %{NAME}o
	kindEnv                             // %{NAME}e
	kindCustom                          // %{NAME}xi
)

// token pairs an immutable kind (plus its argument and, for custom fields,
// the bound FieldFunc) with a mutable resolved-value slot. Resolving a token
// fills the slot; it never rewrites the kind. Per-request clones therefore
// share arg strings and field functions with the compiled template.
type token struct {
	kind tokenKind
	arg  string    // header name, env var name, or custom field label
	fn   FieldFunc // only for kindCustom; shared across clones

	text     string
	resolved bool
}

// format is the ordered token sequence compiled from a format string.
// Sequence order is output order.
type format []token

// clone returns a per-request copy whose resolved slots can be filled
// without touching the shared template.
func (f format) clone() format {
	out := make(format, len(f))
	copy(out, f)
	return out
}

// compileFormat parses a format string into a token sequence. It is total:
// any input compiles, and directive shapes that are not part of the grammar
// are kept in the output as literal text, percent sign included.
func compileFormat(s string) format {
	var f format
	lit := 0 // start of the pending literal run
	i := 0
	for i < len(s) {
		if s[i] != '%' {
			i++
			continue
		}
		tok, n := scanDirective(s[i:])
		if n == 0 {
			// Not a recognized directive; the percent sign stays literal.
			i++
			continue
		}
		if i > lit {
			f = append(f, token{kind: kindText, text: s[lit:i], resolved: true})
		}
		f = append(f, tok)
		i += n
		lit = i
	}
	if lit < len(s) {
		f = append(f, token{kind: kindText, text: s[lit:], resolved: true})
	}
	return f
}

var singleKinds = map[byte]tokenKind{
	'%': kindPercent,
	'a': kindRemoteAddr,
	't': kindRequestTime,
	'r': kindRequestLine,
	's': kindStatus,
	'b': kindSize,
	'U': kindPath,
	'T': kindSeconds,
	'D': kindMillis,
}

// scanDirective reads one directive at the start of s (s[0] is '%').
// It returns the token and the number of bytes consumed, or n == 0 when
// s does not start with a well-formed directive.
func scanDirective(s string) (token, int) {
	if len(s) < 2 {
		return token{}, 0
	}
	if kind, ok := singleKinds[s[1]]; ok {
		return token{kind: kind}, 2
	}
	if s[1] != '{' {
		return token{}, 0
	}

	// Braced form: %{LABEL}X with LABEL in [A-Za-z0-9_-]+.
	j := 2
	for j < len(s) && isLabelByte(s[j]) {
		j++
	}
	if j == 2 || j >= len(s) || s[j] != '}' {
		return token{}, 0
	}
	label := s[2:j]
	j++ // consume '}'
	if j >= len(s) {
		return token{}, 0
	}

	switch s[j] {
	case 'a':
		// Only %{r}a is defined; other labels with the a suffix are
		// reserved and stay literal.
		if label != "r" {
			return token{}, 0
		}
		return token{kind: kindRealIP}, j + 1
	case 'i':
		return token{kind: kindRequestHeader, arg: label}, j + 1
	case 'o':
		return token{kind: kindResponseHeader, arg: label}, j + 1
	case 'e':
		return token{kind: kindEnv, arg: label}, j + 1
	case 'x':
		if j+1 < len(s) && s[j+1] == 'i' {
			return token{kind: kindCustom, arg: label}, j + 2
		}
	}
	return token{}, 0
}

func isLabelByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' || c == '-'
}
