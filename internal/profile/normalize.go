package profile

import (
	"sort"
	"strings"
	"time"

	"github.com/jonathan/gigfeed/internal/types"
)

// MaxPrimarySkills bounds the primary skill list.
const MaxPrimarySkills = 10

// Preference defaults applied when the raw profile has none.
var defaultPlatforms = []string{"linkedin", "upwork"}

const (
	defaultTightness        = 3
	defaultRemotePreference = "flexible"
	minTightness            = 1
	maxTightness            = 5
)

// degreeRanks orders degree vocabulary from highest to lowest. A degree
// string matches the first ranked term it contains.
var degreeRanks = []string{"phd", "doctorate", "master", "mba", "bachelor", "associate", "diploma", "certificate"}

// Options injects the timestamps normalization depends on. Both must come
// from the caller so repeated calls are reproducible.
type Options struct {
	ReferenceDate time.Time
	NormalizedAt  time.Time
}

// NormalizeProfile computes the deterministic projection of a raw profile.
// The output is identical across repeated calls and across any permutation
// of the input arrays.
func NormalizeProfile(p types.RawProfile, opts Options) types.NormalizedProfile {
	primary, secondary, keywords := normalizeSkills(p.Skills)
	experiences, totalMonths := normalizeExperiences(p.Experiences, opts.ReferenceDate)
	educations, highestDegree := normalizeEducations(p.Educations)

	return types.NormalizedProfile{
		PrimarySkills:         primary,
		SecondarySkills:       secondary,
		SkillKeywords:         keywords,
		Experiences:           experiences,
		TotalExperienceMonths: totalMonths,
		InferredSeniority:     SeniorityForMonths(totalMonths),
		TitleKeywords:         titleKeywords(p.Experiences),
		Educations:            educations,
		HighestDegree:         highestDegree,
		Preferences:           normalizePreferences(p.Preferences),
		NormalizedAt:          opts.NormalizedAt,
	}
}

// normalizeSkills canonicalizes names, groups duplicates keeping the
// strongest entry, sorts, and splits primary from secondary.
func normalizeSkills(skills []types.RawSkill) (primary, secondary []types.NormalizedSkill, keywords []string) {
	best := make(map[string]types.NormalizedSkill)

	for _, raw := range skills {
		name := CanonicalSkillName(raw.Name)
		if name == "" {
			continue
		}
		candidate := types.NormalizedSkill{Name: name, Level: raw.Level, Years: raw.Years}
		existing, ok := best[name]
		if !ok || strongerSkill(candidate, existing) {
			best[name] = candidate
		}
	}

	sorted := make([]types.NormalizedSkill, 0, len(best))
	for _, s := range best {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if c := compareIntPtrDesc(sorted[i].Level, sorted[j].Level); c != 0 {
			return c < 0
		}
		if c := compareFloatPtrDesc(sorted[i].Years, sorted[j].Years); c != 0 {
			return c < 0
		}
		return sorted[i].Name < sorted[j].Name
	})

	keywords = make([]string, 0, len(sorted))
	for _, s := range sorted {
		keywords = append(keywords, s.Name)
	}
	sort.Strings(keywords)

	if len(sorted) > MaxPrimarySkills {
		return sorted[:MaxPrimarySkills], sorted[MaxPrimarySkills:], keywords
	}
	return sorted, nil, keywords
}

// strongerSkill reports whether a should replace b in the duplicate group:
// highest level wins, tie-broken by highest years.
func strongerSkill(a, b types.NormalizedSkill) bool {
	if c := compareIntPtrDesc(a.Level, b.Level); c != 0 {
		return c < 0
	}
	return compareFloatPtrDesc(a.Years, b.Years) < 0
}

func normalizeExperiences(raws []types.RawExperience, referenceDate time.Time) ([]types.NormalizedExperience, int) {
	experiences := make([]types.NormalizedExperience, 0, len(raws))
	total := 0

	for _, raw := range raws {
		exp := types.NormalizedExperience{
			Title:     strings.TrimSpace(raw.Title),
			Company:   strings.TrimSpace(raw.Company),
			StartDate: raw.StartDate,
			EndDate:   raw.EndDate,
		}

		if raw.StartDate != nil {
			end := referenceDate
			if raw.EndDate != nil {
				end = *raw.EndDate
			} else {
				exp.IsCurrent = true
			}
			months := wholeMonthsBetween(*raw.StartDate, end)
			exp.DurationMonths = &months
			total += months
		}

		experiences = append(experiences, exp)
	}

	// Display ordering only; every derived field above is computed before
	// this sort.
	sort.SliceStable(experiences, func(i, j int) bool {
		a, b := experiences[i].StartDate, experiences[j].StartDate
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	return experiences, total
}

// wholeMonthsBetween counts fully elapsed months from a to b, never
// negative.
func wholeMonthsBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

func titleKeywords(raws []types.RawExperience) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range raws {
		title := strings.ToLower(strings.TrimSpace(raw.Title))
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, title)
	}
	sort.Strings(out)
	return out
}

func normalizeEducations(raws []types.RawEducation) ([]types.NormalizedEducation, string) {
	educations := make([]types.NormalizedEducation, 0, len(raws))
	for _, raw := range raws {
		edu := types.NormalizedEducation{
			School: strings.TrimSpace(raw.School),
			Degree: strings.TrimSpace(raw.Degree),
			Field:  strings.TrimSpace(raw.Field),
		}
		if raw.EndDate != nil {
			year := raw.EndDate.Year()
			edu.GraduationYear = &year
		}
		educations = append(educations, edu)
	}

	sort.SliceStable(educations, func(i, j int) bool {
		a, b := educations[i].GraduationYear, educations[j].GraduationYear
		switch {
		case a == nil && b == nil:
			return educations[i].Degree < educations[j].Degree
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			if *a != *b {
				return *a > *b
			}
			return educations[i].Degree < educations[j].Degree
		}
	})

	return educations, highestDegree(educations)
}

// highestDegree ranks degree strings against the fixed vocabulary. When no
// ranked term matches any degree, the lexically first degree string is
// returned as-is.
func highestDegree(educations []types.NormalizedEducation) string {
	bestRank := len(degreeRanks)
	best := ""
	var unranked []string

	for _, edu := range educations {
		if edu.Degree == "" {
			continue
		}
		lowered := strings.ToLower(edu.Degree)
		matched := false
		for rank, term := range degreeRanks {
			if strings.Contains(lowered, term) {
				matched = true
				if rank < bestRank {
					bestRank = rank
					best = term
				}
				break
			}
		}
		if !matched {
			unranked = append(unranked, edu.Degree)
		}
	}

	if best != "" {
		return best
	}
	if len(unranked) > 0 {
		sort.Strings(unranked)
		return unranked[0]
	}
	return ""
}

func normalizePreferences(raw *types.RawPreferences) types.Preferences {
	prefs := types.Preferences{
		Platforms:        append([]string(nil), defaultPlatforms...),
		Tightness:        defaultTightness,
		RemotePreference: defaultRemotePreference,
		ContractType:     types.ContractTypeAny,
	}
	if raw == nil {
		return prefs
	}

	if len(raw.Platforms) > 0 {
		seen := make(map[string]bool)
		var platforms []string
		for _, p := range raw.Platforms {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			platforms = append(platforms, p)
		}
		if len(platforms) > 0 {
			sort.Strings(platforms)
			prefs.Platforms = platforms
		}
	}

	if raw.Tightness != nil {
		t := *raw.Tightness
		if t < minTightness {
			t = minTightness
		}
		if t > maxTightness {
			t = maxTightness
		}
		prefs.Tightness = t
	}

	if raw.RemotePreference != "" {
		prefs.RemotePreference = strings.ToLower(strings.TrimSpace(raw.RemotePreference))
	}

	prefs.ContractType = contractTypeFor(raw.ProjectTypes)

	return prefs
}

// contractTypeFor derives a contract type only when the project types
// resolve it exactly; anything mixed or unknown stays "any".
func contractTypeFor(projectTypes []string) string {
	sawHourly, sawFixed, sawOther := false, false, false
	for _, pt := range projectTypes {
		switch strings.ToLower(strings.TrimSpace(pt)) {
		case "hourly":
			sawHourly = true
		case "fixed", "fixed_price", "fixed-price":
			sawFixed = true
		case "":
		default:
			sawOther = true
		}
	}

	switch {
	case sawHourly && !sawFixed && !sawOther:
		return types.ContractTypeHourly
	case sawFixed && !sawHourly && !sawOther:
		return types.ContractTypeFixed
	default:
		return types.ContractTypeAny
	}
}

// compareIntPtrDesc orders descending with nils last: negative when a
// sorts before b.
func compareIntPtrDesc(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	default:
		return 0
	}
}

func compareFloatPtrDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	default:
		return 0
	}
}
