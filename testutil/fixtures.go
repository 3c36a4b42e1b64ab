package testutil

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/kbukum/vidprofile/ai"
)

// FakeProfile returns a plausible profile. The same seed gives the same
// profile; education is left unspecified.
func FakeProfile(seed int64) ai.ProfileFields {
	f := gofakeit.New(seed)
	return ai.NewProfileFields(map[string]any{
		ai.FieldName:         f.Name(),
		ai.FieldProfession:   f.JobTitle(),
		ai.FieldExperience:   fmt.Sprintf("%d years", f.Number(1, 25)),
		ai.FieldTechnologies: []any{f.ProgrammingLanguage(), f.ProgrammingLanguage()},
		ai.FieldLanguages:    []any{f.Language()},
	})
}

// FakeTranscript returns a few sentences of filler text for seed.
func FakeTranscript(seed int64, sentences int) string {
	f := gofakeit.New(seed)
	parts := make([]string, sentences)
	for i := range parts {
		parts[i] = f.Sentence(12)
	}
	return strings.Join(parts, " ")
}
