package provider

import (
	"fmt"
	"strings"
)

// Failure records one failed attempt against one provider.
type Failure struct {
	ProviderID string
	Attempt    int
	Err        error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s (attempt %d): %v", f.ProviderID, f.Attempt, f.Err)
}

// ExhaustedError is returned when every candidate provider failed for a
// platform search. It carries the full list of attempt failures.
type ExhaustedError struct {
	Platform string
	Failures []Failure
}

func (e *ExhaustedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "all providers exhausted for platform %q", e.Platform)
	if len(e.Failures) > 0 {
		sb.WriteString(": ")
		parts := make([]string, 0, len(e.Failures))
		for _, f := range e.Failures {
			parts = append(parts, f.String())
		}
		sb.WriteString(strings.Join(parts, "; "))
	}
	return sb.String()
}

// NoProviderError is returned when no configured provider can serve a
// platform at all.
type NoProviderError struct {
	Platform string
}

func (e *NoProviderError) Error() string {
	return fmt.Sprintf("no provider configured for platform %q", e.Platform)
}
