package naming

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
)

// The naming rules in this file are wire-compatibility surface: generated
// identifiers are part of downstream source, so the exact transformations
// are pinned by golden tests and must not be "improved".

// TypeName converts a raw schema name into a type name. Hyphens
// become underscores; case is left to the document author.
func TypeName(raw string) string {
	return strings.ReplaceAll(raw, "-", "_")
}

// VariantName converts an enumerated string constant into a variant
// identifier using the two-level rule: the constant splits on "." into
// segments, each segment splits on "-" into sub-segments, each sub-segment
// is capitalized (snake-aware), sub-segments rejoin with "_", segments
// rejoin with "_". A result with a leading digit gets a "_" prefix.
//
//	api_key.created -> ApiKey_Created
//	gpt-4o-mini     -> Gpt_4o_Mini
func VariantName(raw string) string {
	segments := strings.Split(raw, ".")
	parts := make([]string, len(segments))
	for i, seg := range segments {
		subs := strings.Split(seg, "-")
		for j, sub := range subs {
			subs[j] = capitalizeWords(sub)
		}
		parts[i] = strings.Join(subs, "_")
	}
	name := strings.Join(parts, "_")
	if name != "" && unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	return name
}

// capitalizeWords turns a snake-ish fragment into capitalized form:
// "api_key" -> "ApiKey", "AUTO" -> "Auto". A fragment starting with a digit
// keeps the digit ("4o" -> "4o").
func capitalizeWords(s string) string {
	words := strings.Split(s, "_")
	var b strings.Builder
	for _, w := range words {
		if w == "" {
			continue
		}
		lower := strings.ToLower(w)
		r := []rune(lower)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// FieldName converts a raw property name into an exported Go field
// identifier. Dots become underscores, the first letter is capitalized
// (Go's escaped-identifier form for fields is exportation), and a leading
// digit gets an "N" prefix. The wire tag is never rewritten; only the
// in-code identifier is transformed. An untranslatable name is a synthesis
// error, not a silent rename.
func FieldName(raw string) (string, error) {
	name := strings.ReplaceAll(raw, ".", "_")
	if name == "" {
		return "", fmt.Errorf("cannot derive field identifier from empty property name")
	}
	r := []rune(name)
	if unicode.IsDigit(r[0]) {
		name = "N" + name
		r = []rune(name)
	}
	r[0] = unicode.ToUpper(r[0])
	name = string(r)
	if !token.IsIdentifier(name) {
		return "", fmt.Errorf("property %q does not map to a valid identifier", raw)
	}
	return name, nil
}

// SnakeCase converts a type name into the snake-cased field name used for
// flattened allOf members: "ResponseFormatText" -> "response_format_text".
func SnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '.' || r == ' ':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
