package prompt

import (
	"maps"
	"regexp"
	"slices"
	"strings"

	goerrors "github.com/kbukum/vidprofile/errors"
)

// Names of the built-in templates.
const (
	ProfileExtraction       = "profile_extraction"
	CVGeneration            = "cv_generation"
	TechnicalTestGeneration = "technical_test_generation"
)

// Template is a named prompt with {variable} placeholders.
type Template struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description,omitempty"`
	Template    string   `json:"template" validate:"required"`
	Variables   []string `json:"variables"`
}

var placeholder = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Placeholders returns the distinct {variable} names found in text, in order
// of first appearance.
func Placeholders(text string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

// Render substitutes vars into the template. Every declared variable must be
// supplied; braces that are not placeholders for a supplied variable are
// left as they are.
func (t Template) Render(vars map[string]string) (string, error) {
	for _, name := range t.Variables {
		if _, ok := vars[name]; !ok {
			return "", goerrors.InvalidInput(name, "missing variable for template "+t.Name)
		}
	}
	pairs := make([]string, 0, len(vars)*2)
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(t.Template), nil
}

func (t Template) clone() Template {
	t.Variables = slices.Clone(t.Variables)
	return t
}

// Defaults returns a fresh copy of the built-in templates keyed by name.
func Defaults() map[string]Template {
	out := make(map[string]Template, len(defaults))
	for _, t := range defaults {
		out[t.Name] = t.clone()
	}
	return out
}

// Default returns the built-in template with the given name.
func Default(name string) (Template, bool) {
	for _, t := range defaults {
		if t.Name == name {
			return t.clone(), true
		}
	}
	return Template{}, false
}

var defaults = []Template{
	{
		Name:        ProfileExtraction,
		Description: "Extract profile information from transcribed text",
		Template: "Analyze the following transcribed text from a personal presentation video and extract profile information.\n\n" +
			"Return ONLY a valid JSON object with these fields:\n" +
			"- name: Person's name\n" +
			"- profession: Current occupation, position or specialty\n" +
			"- experience: Areas or topics with work practice or applied knowledge\n" +
			"- education: Degrees, studies or academic training. If not explicitly mentioned, infer logically from profession\n" +
			"- technologies: Tools, software, languages or specific techniques mentioned\n" +
			"- languages: List of spoken or understood languages\n" +
			"- achievements: Recognition, milestones or relevant contributions\n" +
			"- soft_skills: Social or personal skills\n\n" +
			"If any field is not present and cannot be inferred, use 'Not specified'.\n\n" +
			"Text to analyze:\n{text}\n\n" +
			"Respond ONLY with JSON, no additional text.",
		Variables: []string{"text"},
	},
	{
		Name:        CVGeneration,
		Description: "Generate professional CV profile from transcription and extracted data",
		Template: "Based on the following transcription and extracted profile information, write an optimized professional profile for a CV " +
			"in the style of concise and impactful executive summaries. The profile must be in Spanish, professional and formal, " +
			"written in impersonal third person (without mentioning the name at the beginning), structured in short and focused paragraphs. " +
			"Follow this approximate structure: - First paragraph: Profession and key experience, highlighting specialties and areas of expertise. " +
			"- Second paragraph: Academic training and technical knowledge/technologies. - Third paragraph: Capabilities, languages and soft skills. " +
			"- Fourth paragraph: Recognition, achievements and professional commitment. Use impactful phrases, persuasive language and avoid redundancies. " +
			"Integrate all relevant information coherently.\n\n" +
			"Transcription: {transcription}\n\n" +
			"Extracted information: {profile_data}\n\n" +
			"If any data is unavailable or 'Not specified', integrate it subtly or omit it if it doesn't add value. " +
			"Don't use Markdown format, placeholders or additional text outside the profile. " +
			"The profile must be concise, persuasive and suitable for a professional CV.",
		Variables: []string{"transcription", "profile_data"},
	},
	{
		Name:        TechnicalTestGeneration,
		Description: "Generate technical test for job candidate based on profile",
		Template: "Generate a comprehensive technical test in Spanish for a job candidate with the following profile:\n\n" +
			"**Profession:** {profession}\n" +
			"**Technologies/Skills:** {technologies}\n" +
			"**Experience Level:** {experience}\n" +
			"**Education:** {education}\n\n" +
			"Create a technical assessment that includes:\n\n" +
			"1. **Theoretical Questions (30%)**: 5-7 multiple choice or short answer questions about fundamental concepts\n" +
			"2. **Practical Exercises (50%)**: 2-3 hands-on coding/problem-solving exercises appropriate to the role\n" +
			"3. **Case Study/Scenario (20%)**: 1 real-world scenario that tests analytical and decision-making skills\n\n" +
			"**Requirements:**\n" +
			"- Adjust difficulty based on experience level\n" +
			"- Focus on technologies and skills mentioned in the profile\n" +
			"- Include clear instructions and expected deliverables\n" +
			"- Provide estimated time for completion (total: 2-3 hours)\n" +
			"- Format the entire test in Markdown with proper headings, code blocks, and formatting\n" +
			"- Include a section at the end for evaluation criteria\n\n" +
			"**Format Structure:**\n" +
			"```markdown\n" +
			"# Prueba Técnica - [Profession]\n\n" +
			"## Información General\n" +
			"- Duración estimada: X horas\n" +
			"- Tecnologías evaluadas: [list]\n\n" +
			"## Parte 1: Preguntas Teóricas (30%)\n...\n\n" +
			"## Parte 2: Ejercicios Prácticos (50%)\n...\n\n" +
			"## Parte 3: Caso de Estudio (20%)\n...\n\n" +
			"## Criterios de Evaluación\n...\n" +
			"```\n\n" +
			"Generate a professional, fair, and comprehensive technical test that accurately assesses the candidate's capabilities.",
		Variables: []string{"profession", "technologies", "experience", "education"},
	},
}
