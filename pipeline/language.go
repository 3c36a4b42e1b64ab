package pipeline

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// LanguageDetector classifies text into an ISO 639-1 code.
type LanguageDetector interface {
	Detect(text string) (string, bool)
}

// linguaDetector builds its lingua model on first use; loading the language
// models is the expensive part.
type linguaDetector struct {
	codes []string

	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLanguageDetector returns a lingua-backed detector restricted to codes.
// Unknown codes are ignored; fewer than two known codes selects
// DefaultLanguages.
func NewLanguageDetector(codes []string) LanguageDetector {
	return &linguaDetector{codes: codes}
}

func (d *linguaDetector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	d.once.Do(func() {
		langs := linguaLanguages(d.codes)
		if len(langs) < 2 {
			langs = linguaLanguages(DefaultLanguages)
		}
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			Build()
	})

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

func linguaLanguages(codes []string) []lingua.Language {
	var out []lingua.Language
	for _, lang := range lingua.AllLanguages() {
		iso := strings.ToLower(lang.IsoCode639_1().String())
		for _, c := range codes {
			if strings.EqualFold(strings.TrimSpace(c), iso) {
				out = append(out, lang)
				break
			}
		}
	}
	return out
}
