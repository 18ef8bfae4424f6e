package notification

import (
	"regexp"
	"sort"
)

// placeholderRe matches ${NAME} tokens. The name capture is any run of
// non-close-brace characters, so there are no escaping rules: a literal "${"
// inside a capture region is not distinguished from a placeholder boundary.
var placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExtractPlaceholders returns the distinct placeholder names in text, sorted.
// Empty input yields nil.
func ExtractPlaceholders(text string) []string {
	if text == "" {
		return nil
	}
	matches := placeholderRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m[1]] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
