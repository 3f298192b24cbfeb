package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/gigfeed/internal/ingest"
	"github.com/jonathan/gigfeed/internal/types"
)

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRunSummary(&ingest.RunSummary{
		RunID:       uuid.New(),
		TeamID:      "team-1",
		Status:      "completed",
		JobsFound:   12,
		JobsSkipped: 3,
		PlansFailed: 1,
		Duration:    1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "INGESTION RUN")
	assert.Contains(t, out, "Jobs found:    12")
	assert.Contains(t, out, "Jobs skipped:  3")
	assert.Contains(t, out, "Plans failed:  1")
	assert.Contains(t, out, "1.5s")
}

func TestPrintRunSummaryNil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunSummary(nil)
	assert.Empty(t, buf.String())
}

func TestPrintJobsTruncatesList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	jobs := make([]types.CanonicalJob, 8)
	for i := range jobs {
		jobs[i] = types.CanonicalJob{
			Title:      "Backend Engineer",
			Platform:   "upwork",
			BudgetType: types.BudgetTypeHourly,
			Skills:     []string{"go", "postgresql"},
		}
	}
	p.PrintJobs(jobs)

	out := buf.String()
	assert.Contains(t, out, "NORMALIZED JOBS")
	assert.Contains(t, out, "Canonical jobs: 8")
	assert.Contains(t, out, "... and 3 more jobs")
}

func TestPrintNormalizedProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	level := 5
	p.PrintNormalizedProfile(&types.NormalizedProfile{
		InferredSeniority:     "senior",
		TotalExperienceMonths: 84,
		HighestDegree:         "master",
		PrimarySkills: []types.NormalizedSkill{
			{Name: "go", Level: &level},
			{Name: "postgresql"},
		},
		Preferences: types.Preferences{Platforms: []string{"linkedin", "upwork"}},
	})

	out := buf.String()
	assert.Contains(t, out, "NORMALIZED PROFILE")
	assert.Contains(t, out, "Seniority:   senior")
	assert.Contains(t, out, "go (level 5)")
	assert.Contains(t, out, "linkedin, upwork")
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "short", ellipsize("short", 45))
	assert.Equal(t, strings.Repeat("x", 42)+"...", ellipsize(strings.Repeat("x", 50), 45))

	// Cutting inside a 2-byte rune backs up to the rune boundary.
	got := ellipsize(strings.Repeat("é", 30), 45)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 21)+"...", got)
}

func TestPrintJobsMultibyteTitle(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobs([]types.CanonicalJob{{
		Title:      "Développeur Go sénior à Genève pour fintech régulée",
		Platform:   "upwork",
		BudgetType: types.BudgetTypeHourly,
	}})

	assert.True(t, utf8.ValidString(buf.String()))
	assert.Contains(t, buf.String(), "...")
}

func TestPrintQueryPlans(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintQueryPlans([]types.PlannedQuery{
		{
			Platform: "upwork",
			Plan: types.QueryPlan{
				Keywords: []string{"golang", "backend"},
				Filters:  &types.QueryFilters{Location: "Berlin, Germany"},
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "QUERY PLAN")
	assert.Contains(t, out, "upwork: golang, backend")
	assert.Contains(t, out, "Location: Berlin, Germany")
}
