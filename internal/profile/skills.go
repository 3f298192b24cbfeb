// Package profile produces deterministic normalized projections of raw
// freelancer profiles.
package profile

import "strings"

// skillAliases maps non-canonical spellings to one fixed canonical name.
// Keys are compared after lowercasing and trimming; canonical names are
// lowercase alphanumeric tokens. Map keys are unique by construction, so an
// alias can never resolve to two canonicals.
var skillAliases = map[string]string{
	"amazon web services": "aws",
	"angularjs":           "angular",
	"angular.js":          "angular",
	"c#":                  "csharp",
	"dot net":             "dotnet",
	".net":                "dotnet",
	"ecmascript":          "javascript",
	"golang":              "go",
	"go lang":             "go",
	"google cloud":        "gcp",
	"google cloud platform": "gcp",
	"js":          "javascript",
	"java script": "javascript",
	"k8s":         "kubernetes",
	"kube":        "kubernetes",
	"mongo":       "mongodb",
	"mongo db":    "mongodb",
	"next":        "nextjs",
	"next.js":     "nextjs",
	"next js":     "nextjs",
	"node":        "nodejs",
	"node.js":     "nodejs",
	"node js":     "nodejs",
	"postgres":    "postgresql",
	"postgre sql": "postgresql",
	"psql":        "postgresql",
	"react.js":    "react",
	"reactjs":     "react",
	"react js":    "react",
	"ruby on rails": "rails",
	"ror":         "rails",
	"ts":          "typescript",
	"type script": "typescript",
	"vue.js":      "vue",
	"vuejs":       "vue",
	"vue js":      "vue",
	"word press":  "wordpress",
}

// CanonicalSkillName resolves a raw skill name to its canonical form:
// lowercase, alias-resolved, else sanitized to lowercase alphanumerics.
// Returns "" for names with no alphanumeric content.
func CanonicalSkillName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return ""
	}

	if canonical, ok := skillAliases[lowered]; ok {
		return canonical
	}

	var sb strings.Builder
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	sanitized := sb.String()

	// A sanitized spelling may itself be a declared alias ("nodejs" from
	// "Node-JS").
	if canonical, ok := skillAliases[sanitized]; ok {
		return canonical
	}

	return sanitized
}

// AliasTable exposes the alias mapping for consistency checks.
func AliasTable() map[string]string {
	out := make(map[string]string, len(skillAliases))
	for alias, canonical := range skillAliases {
		out[alias] = canonical
	}
	return out
}
