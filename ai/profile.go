package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/structured"
)

// Unspecified is the value of a profile field the transcript did not
// provide.
const Unspecified = "Not specified"

// Profile field keys, in document order.
const (
	FieldName         = "name"
	FieldProfession   = "profession"
	FieldExperience   = "experience"
	FieldEducation    = "education"
	FieldTechnologies = "technologies"
	FieldLanguages    = "languages"
	FieldAchievements = "achievements"
	FieldSoftSkills   = "soft_skills"
)

// ProfileKeys lists every profile field key.
var ProfileKeys = []string{
	FieldName, FieldProfession, FieldExperience, FieldEducation,
	FieldTechnologies, FieldLanguages, FieldAchievements, FieldSoftSkills,
}

// ProfileFields is a professional profile. Every field holds a real value or
// Unspecified; build values with NewProfileFields or DefaultProfile.
type ProfileFields struct {
	Name         string `json:"name"`
	Profession   string `json:"profession"`
	Experience   string `json:"experience"`
	Education    string `json:"education"`
	Technologies string `json:"technologies"`
	Languages    string `json:"languages"`
	Achievements string `json:"achievements"`
	SoftSkills   string `json:"soft_skills"`
}

// DefaultProfile returns a profile with every field Unspecified.
func DefaultProfile() ProfileFields {
	return NewProfileFields(nil)
}

// NewProfileFields normalises a decoded object into a profile. Missing,
// null and blank values become Unspecified; lists are joined with ", ";
// other values are rendered as text. Unknown keys are dropped.
func NewProfileFields(m map[string]any) ProfileFields {
	var p ProfileFields
	for _, key := range ProfileKeys {
		*p.field(key) = normalise(m[key])
	}
	return p
}

// Get returns the value of key, or "" for an unknown key.
func (p ProfileFields) Get(key string) string {
	if f := p.field(key); f != nil {
		return *f
	}
	return ""
}

// With returns a copy with key set to value. Blank values become
// Unspecified; unknown keys leave the copy unchanged.
func (p ProfileFields) With(key, value string) ProfileFields {
	if f := p.field(key); f != nil {
		*f = normalise(value)
	}
	return p
}

// Specified reports whether key holds a real value.
func (p ProfileFields) Specified(key string) bool {
	v := p.Get(key)
	return v != "" && v != Unspecified
}

// Map returns the fields keyed by their JSON names.
func (p ProfileFields) Map() map[string]string {
	out := make(map[string]string, len(ProfileKeys))
	for _, key := range ProfileKeys {
		out[key] = p.Get(key)
	}
	return out
}

// JSON renders the profile as a JSON object with non-ASCII text kept
// verbatim.
func (p ProfileFields) JSON() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(p)
	return strings.TrimSpace(buf.String())
}

func (p *ProfileFields) field(key string) *string {
	switch key {
	case FieldName:
		return &p.Name
	case FieldProfession:
		return &p.Profession
	case FieldExperience:
		return &p.Experience
	case FieldEducation:
		return &p.Education
	case FieldTechnologies:
		return &p.Technologies
	case FieldLanguages:
		return &p.Languages
	case FieldAchievements:
		return &p.Achievements
	case FieldSoftSkills:
		return &p.SoftSkills
	default:
		return nil
	}
}

func normalise(v any) string {
	var s string
	switch val := v.(type) {
	case nil:
	case string:
		s = val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if t := strings.TrimSpace(normaliseItem(item)); t != "" {
				parts = append(parts, t)
			}
		}
		s = strings.Join(parts, ", ")
	case map[string]any:
		b, _ := json.Marshal(val)
		s = string(b)
	default:
		s = fmt.Sprint(val)
	}
	if s = strings.TrimSpace(s); s == "" {
		return Unspecified
	}
	return s
}

func normaliseItem(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// profileSchema accepts any object whose known keys hold text, numbers,
// flat lists or null. Unknown keys are ignored.
var profileSchema = structured.MustCompileSchema("profile.json", `{
  "type": "object",
  "properties": {
    "name":         {"$ref": "#/$defs/value"},
    "profession":   {"$ref": "#/$defs/value"},
    "experience":   {"$ref": "#/$defs/value"},
    "education":    {"$ref": "#/$defs/value"},
    "technologies": {"$ref": "#/$defs/value"},
    "languages":    {"$ref": "#/$defs/value"},
    "achievements": {"$ref": "#/$defs/value"},
    "soft_skills":  {"$ref": "#/$defs/value"}
  },
  "$defs": {
    "scalar": {"type": ["string", "number", "boolean", "null"]},
    "value": {
      "anyOf": [
        {"$ref": "#/$defs/scalar"},
        {"type": "array", "items": {"$ref": "#/$defs/scalar"}}
      ]
    }
  }
}`)

// DecodeProfile reads a profile document supplied by a user, such as the
// profile_data of an earlier run. Code fences are tolerated; nested objects
// under known keys are rejected.
func DecodeProfile(data []byte) (ProfileFields, error) {
	obj, err := structured.Parse(string(data))
	if err != nil {
		return DefaultProfile(), goerrors.InvalidInput("profile", "not a JSON object").WithCause(err)
	}
	if err := profileSchema.Validate(obj); err != nil {
		var se *structured.SchemaError
		reason := err.Error()
		if errors.As(err, &se) {
			reason = strings.Join(se.Violations, "; ")
		}
		return DefaultProfile(), goerrors.InvalidInput("profile", reason).WithCause(err)
	}
	return NewProfileFields(obj), nil
}
