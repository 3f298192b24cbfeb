package normalize

import (
	"sort"
	"strings"
)

// skillDictionary maps each canonical skill token to the variants that
// identify it in posting text. Dotted and spaced spellings fold to a single
// canonical token. A variant with a trailing space is matched as a whole
// word, so "java" cannot fire inside "javascript".
var skillDictionary = map[string][]string{
	"angular":    {"angular"},
	"aws":        {"aws", "amazon web services"},
	"csharp":     {"c#", ".net"},
	"css":        {"css"},
	"django":     {"django"},
	"docker":     {"docker"},
	"figma":      {"figma"},
	"flutter":    {"flutter"},
	"gcp":        {"gcp", "google cloud"},
	"go":         {"golang"},
	"graphql":    {"graphql"},
	"java":       {"java "},
	"javascript": {"javascript", "java script"},
	"kubernetes": {"kubernetes", "k8s"},
	"laravel":    {"laravel"},
	"mongodb":    {"mongodb", "mongo db"},
	"mysql":      {"mysql"},
	"nextjs":     {"next.js", "nextjs", "next js"},
	"nodejs":     {"node.js", "nodejs", "node js"},
	"php":        {"php"},
	"postgresql": {"postgresql", "postgres"},
	"python":     {"python"},
	"rails":      {"ruby on rails", "rails"},
	"react":      {"react"},
	"redis":      {"redis"},
	"rust":       {"rust "},
	"shopify":    {"shopify"},
	"sql":        {"sql"},
	"swift":      {"swift"},
	"terraform":  {"terraform"},
	"typescript": {"typescript", "type script"},
	"vue":        {"vue.js", "vuejs", "vue js", "vue "},
	"wordpress":  {"wordpress", "word press"},
}

// ExtractSkills matches the fixed skill dictionary against posting text,
// case-insensitively, returning the sorted set of canonical tokens.
func ExtractSkills(text string) []string {
	if text == "" {
		return nil
	}
	lowered := strings.ToLower(text)

	var out []string
	for canonical, variants := range skillDictionary {
		for _, variant := range variants {
			if matchesVariant(lowered, variant) {
				out = append(out, canonical)
				break
			}
		}
	}

	sort.Strings(out)
	return out
}

// matchesVariant reports whether lowered text contains the variant. A
// trailing space marks a whole-word variant, which also matches at the end
// of the text and before punctuation.
func matchesVariant(text, variant string) bool {
	word, whole := strings.CutSuffix(variant, " ")
	if !whole {
		return strings.Contains(text, variant)
	}

	for start := 0; ; start++ {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
