package blueprint

import (
	"strings"
	"unicode"
)

// ToPascalCase converts "loyalty_tiers", "loyalty-tiers" or "loyaltyTiers" to "LoyaltyTiers".
func ToPascalCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		words[i] = capitalize(strings.ToLower(word))
	}
	return strings.Join(words, "")
}

// ToCamelCase converts a name to camelCase.
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if pascal == "" {
		return pascal
	}
	return strings.ToLower(pascal[:1]) + pascal[1:]
}

// ToSnakeCase converts a name to snake_case.
func ToSnakeCase(s string) string {
	words := splitWords(s)
	for i, word := range words {
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, "_")
}

// ToKebabCase converts a name to kebab-case.
func ToKebabCase(s string) string {
	return strings.ReplaceAll(ToSnakeCase(s), "_", "-")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// splitWords splits camelCase, PascalCase, snake_case and kebab-case names.
func splitWords(s string) []string {
	s = strings.NewReplacer("_", " ", "-", " ", "/", " ", ".", " ").Replace(s)

	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			if !unicode.IsSpace(prev) && !unicode.IsUpper(prev) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return strings.Fields(b.String())
}

// Pluralize returns a simple English plural of a lowercase word.
func Pluralize(s string) string {
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, "s") || strings.HasSuffix(s, "x") ||
		strings.HasSuffix(s, "ch") || strings.HasSuffix(s, "sh") {
		return s + "es"
	}
	if strings.HasSuffix(s, "y") && len(s) > 1 && !isVowel(s[len(s)-2]) {
		return s[:len(s)-1] + "ies"
	}
	return s + "s"
}

// Singularize reverses Pluralize for the common suffixes. Words that do not
// look plural are returned unchanged.
func Singularize(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "sses"), strings.HasSuffix(s, "xes"),
		strings.HasSuffix(s, "ches"), strings.HasSuffix(s, "shes"):
		return s[:len(s)-2]
	case strings.HasSuffix(s, "ss"), strings.HasSuffix(s, "us"), strings.HasSuffix(s, "is"):
		return s
	case strings.HasSuffix(s, "s") && len(s) > 1:
		return s[:len(s)-1]
	}
	return s
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// EntityName is the PascalCase singular type name for a table: "loyalty_tiers" -> "LoyaltyTier".
func EntityName(table string) string {
	words := splitWords(table)
	if len(words) == 0 {
		return ""
	}
	words[len(words)-1] = Singularize(strings.ToLower(words[len(words)-1]))
	return ToPascalCase(strings.Join(words, "_"))
}

// CollectionName is the PascalCase plural name for a table: "loyalty_tier" -> "LoyaltyTiers".
func CollectionName(table string) string {
	words := splitWords(table)
	if len(words) == 0 {
		return ""
	}
	last := strings.ToLower(words[len(words)-1])
	words[len(words)-1] = Pluralize(Singularize(last))
	return ToPascalCase(strings.Join(words, "_"))
}

// HookName is the state-hook identifier generated for a table: "loyalty_tiers" -> "useLoyaltyTiers".
func HookName(table string) string {
	return "use" + CollectionName(table)
}
