// -----------------------------------------------------------------------
// Structured Response Decoder - Best-effort JSON recovery for model output
// Handles code fences, control characters, and token-limit truncation
// -----------------------------------------------------------------------

package structurer

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencePattern matches a markdown code fence wrapper around the payload,
// with or without a language tag.
var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// Decode parses a model text response into a generic map. It never
// fails: unparseable input degrades to an empty map so callers see
// missing fields instead of an error.
func Decode(raw string) map[string]any {
	var result map[string]any
	if DecodeInto(raw, &result) && result != nil {
		return result
	}
	return map[string]any{}
}

// DecodeInto parses a model text response into v, applying the same
// sanitize-then-repair pipeline as Decode. It reports whether any parse
// attempt succeeded; on false, v is left untouched by the failed
// attempts' partial state only insofar as encoding/json leaves it.
func DecodeInto(raw string, v any) bool {
	cleaned := sanitize(raw)
	if cleaned == "" {
		return false
	}

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return true
	}

	repaired := repair(cleaned)
	return json.Unmarshal([]byte(repaired), v) == nil
}

// sanitize strips code-fence wrappers, trims chatter before the first
// opener and after the last closer, and escapes raw control characters
// that models sometimes emit inside string values.
func sanitize(raw string) string {
	text := strings.TrimSpace(raw)

	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	} else {
		// Unterminated fence: strip the opening marker alone.
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
	}

	// Models often preface the payload with prose. Keep from the first
	// structural opener onward.
	if idx := strings.IndexAny(text, "{["); idx > 0 {
		text = text[idx:]
	}

	return escapeControlChars(strings.TrimSpace(text))
}

// escapeControlChars rewrites literal control characters inside JSON
// string values to their escaped forms. Control characters outside
// strings are structural whitespace at best and are dropped unless they
// are legal JSON whitespace.
func escapeControlChars(text string) string {
	var out strings.Builder
	out.Grow(len(text))

	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			if escaped {
				out.WriteByte(c)
				escaped = false
				continue
			}
			switch {
			case c == '\\':
				out.WriteByte(c)
				escaped = true
			case c == '"':
				out.WriteByte(c)
				inString = false
			case c == '\n':
				out.WriteString(`\n`)
			case c == '\r':
				out.WriteString(`\r`)
			case c == '\t':
				out.WriteString(`\t`)
			case c < 0x20:
				// other control bytes have no business inside a value
			default:
				out.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '"':
			out.WriteByte(c)
			inString = true
		case c < 0x20 && c != '\n' && c != '\r' && c != '\t':
			// drop
		default:
			out.WriteByte(c)
		}
	}

	return out.String()
}

// repair closes structures a token-limit cutoff left open. It walks the
// text tracking string state and a stack of unclosed openers, then
// appends a closing quote if the text ends mid-string and closers for
// the remaining openers in reverse order.
func repair(text string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var out strings.Builder
	out.WriteString(text)

	if inString {
		if escaped {
			// A trailing lone backslash would escape our closing quote.
			out.WriteByte('\\')
		}
		out.WriteByte('"')
	}

	// A cutoff can also land right after a comma or a key's colon; a
	// closer there still produces invalid JSON, so patch the dangling
	// separator first.
	trimmed := strings.TrimRight(out.String(), " \t\n\r")
	if strings.HasSuffix(trimmed, ",") {
		trimmed = strings.TrimSuffix(trimmed, ",")
	} else if strings.HasSuffix(trimmed, ":") {
		trimmed += " null"
	}

	var closers strings.Builder
	closers.WriteString(trimmed)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			closers.WriteByte('}')
		} else {
			closers.WriteByte(']')
		}
	}
	return closers.String()
}
