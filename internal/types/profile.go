package types

import "time"

// Seniority tiers derived from total experience months.
const (
	SeniorityEntry     = "entry"
	SeniorityJunior    = "junior"
	SeniorityMid       = "mid"
	SenioritySenior    = "senior"
	SeniorityLead      = "lead"
	SeniorityPrincipal = "principal"
)

// Contract types derived from preference project types.
const (
	ContractTypeHourly = "hourly"
	ContractTypeFixed  = "fixed"
	ContractTypeAny    = "any"
)

// RawProfile is the stored, user-supplied profile before normalization.
type RawProfile struct {
	Skills      []RawSkill      `json:"skills,omitempty"`
	Experiences []RawExperience `json:"experiences,omitempty"`
	Educations  []RawEducation  `json:"educations,omitempty"`
	Preferences *RawPreferences `json:"preferences,omitempty"`
}

// RawSkill is a self-reported skill with optional proficiency metadata.
type RawSkill struct {
	Name  string   `json:"name"`
	Level *int     `json:"level,omitempty"`
	Years *float64 `json:"years,omitempty"`
}

// RawExperience is one work-history entry. EndDate nil means ongoing.
type RawExperience struct {
	Title       string     `json:"title"`
	Company     string     `json:"company,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Description string     `json:"description,omitempty"`
}

// RawEducation is one education entry.
type RawEducation struct {
	School    string     `json:"school,omitempty"`
	Degree    string     `json:"degree,omitempty"`
	Field     string     `json:"field,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// RawPreferences holds matching preferences as supplied by the user.
type RawPreferences struct {
	Platforms        []string `json:"platforms,omitempty"`
	Tightness        *int     `json:"tightness,omitempty"`
	RemotePreference string   `json:"remote_preference,omitempty"`
	ProjectTypes     []string `json:"project_types,omitempty"`
}

// NormalizedProfile is the deterministic projection of a RawProfile.
// Equal under any permutation of the input arrays, and stable across
// repeated calls given the same reference/normalization timestamps.
type NormalizedProfile struct {
	PrimarySkills         []NormalizedSkill      `json:"primary_skills"`
	SecondarySkills       []NormalizedSkill      `json:"secondary_skills,omitempty"`
	SkillKeywords         []string               `json:"skill_keywords"`
	Experiences           []NormalizedExperience `json:"experiences"`
	TotalExperienceMonths int                    `json:"total_experience_months"`
	InferredSeniority     string                 `json:"inferred_seniority"`
	TitleKeywords         []string               `json:"title_keywords,omitempty"`
	Educations            []NormalizedEducation  `json:"educations,omitempty"`
	HighestDegree         string                 `json:"highest_degree,omitempty"`
	Preferences           Preferences            `json:"preferences"`
	NormalizedAt          time.Time              `json:"normalized_at"`
}

// NormalizedSkill is a canonical-named skill with the strongest proficiency
// seen across duplicate raw entries.
type NormalizedSkill struct {
	Name  string   `json:"name"`
	Level *int     `json:"level,omitempty"`
	Years *float64 `json:"years,omitempty"`
}

// NormalizedExperience carries computed duration. DurationMonths is nil
// when the start date is unknown.
type NormalizedExperience struct {
	Title          string     `json:"title"`
	Company        string     `json:"company,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	DurationMonths *int       `json:"duration_months,omitempty"`
	IsCurrent      bool       `json:"is_current"`
}

// NormalizedEducation carries the derived graduation year.
type NormalizedEducation struct {
	School         string `json:"school,omitempty"`
	Degree         string `json:"degree,omitempty"`
	Field          string `json:"field,omitempty"`
	GraduationYear *int   `json:"graduation_year,omitempty"`
}

// Preferences is the normalized preference block with defaults applied.
type Preferences struct {
	Platforms        []string `json:"platforms"`
	Tightness        int      `json:"tightness"`
	RemotePreference string   `json:"remote_preference"`
	ContractType     string   `json:"contract_type"`
}
