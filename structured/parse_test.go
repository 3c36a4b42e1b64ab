package structured

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse_Recovery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"name":"Ana"}`, "Ana"},
		{"json fence", "```json\n{\"name\": \"Ana\"}\n```", "Ana"},
		{"bare fence", "```\n{\"name\": \"Ana\"}\n```", "Ana"},
		{"surrounding prose", "Here is the profile:\n{\"name\": \"Ana\"}\nHope this helps!", "Ana"},
		{"trailing comma", `{"name": "Ana", "technologies": ["Go", "SQL",],}`, "Ana"},
		{"prose and trailing comma", "Sure! {\"name\": \"Ana\",} done", "Ana"},
		{"nested braces", `Result: {"name": "Ana", "meta": {"k": 1}} end`, "Ana"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := obj["name"]; got != tt.want {
				t.Errorf("name = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_ExactObjects(t *testing.T) {
	profile := `{"name": "Ana", "experience": 7, "technologies": ["Go", "Redis"], "education": null}`

	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "trailing comma",
			raw:  `{"a": 1, "b": 2,}`,
			want: map[string]any{"a": json.Number("1"), "b": json.Number("2")},
		},
		{
			name: "fenced profile",
			raw:  "```json\n" + profile + "\n```",
			want: map[string]any{
				"name":         "Ana",
				"experience":   json.Number("7"),
				"technologies": []any{"Go", "Redis"},
				"education":    nil,
			},
		},
		{
			name: "large integer inside prose and fence",
			raw:  "Here you go:\n```json\n{\"id\": 9007199254740993, \"ratio\": 0.25}\n```\nThanks",
			want: map[string]any{"id": json.Number("9007199254740993"), "ratio": json.Number("0.25")},
		},
		{
			name: "comma and brace inside a string",
			raw:  `{"a": "x, }", "b": 1,}`,
			want: map[string]any{"a": "x, }", "b": json.Number("1")},
		},
		{
			name: "escaped quote before a comma",
			raw:  `{"q": "say \"hi,\" ]", "list": [1, 2,],}`,
			want: map[string]any{"q": `say "hi," ]`, "list": []any{json.Number("1"), json.Number("2")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParse_TrailingCommaCanonicalForm(t *testing.T) {
	obj, err := Parse(`{"a": 1, "b": 2,}`)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(obj)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":1,"b":2}` {
		t.Errorf("re-encoded = %s", b)
	}
}

func TestParse_RoundTripThroughWrappers(t *testing.T) {
	original := map[string]any{
		"id":           int64(9007199254740993),
		"name":         "Ana, {dev}",
		"technologies": []any{"Go", "Redis"},
		"meta":         map[string]any{"remote": true, "score": 4.5, "note": nil},
	}
	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatal(err)
	}

	wrappers := map[string]string{
		"bare":            string(encoded),
		"fence":           "```json\n" + string(encoded) + "\n```",
		"prose":           "Sure, here it is: " + string(encoded) + " Let me know!",
		"prose and fence": "Result:\n```json\n" + string(encoded) + "\n```\nDone.",
	}
	for name, raw := range wrappers {
		t.Run(name, func(t *testing.T) {
			obj, err := Parse(raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := json.Marshal(obj)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != string(encoded) {
				t.Errorf("round trip = %s, want %s", got, encoded)
			}
		})
	}
}

func TestDropTrailingCommas(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a": 1,}`, `{"a": 1}`},
		{"[1, 2 ,\n]", "[1, 2 \n]"},
		{`{"a": "1,}"}`, `{"a": "1,}"}`},
		{`{"a": "\\", "b": [",]",],}`, `{"a": "\\", "b": [",]"]}`},
	}
	for _, tt := range tests {
		if got := dropTrailingCommas(tt.in); got != tt.want {
			t.Errorf("dropTrailingCommas(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		cause error
	}{
		{"no braces", "I could not find any information.", ErrNoObject},
		{"array", `["a", "b"]`, ErrNotObject},
		{"scalar", `42`, ErrNotObject},
		{"broken", `{"name": "Ana" "x"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("expected cause %v, got %v", tt.cause, pe.Cause)
			}
		})
	}
}

func TestParse_SnippetIsBounded(t *testing.T) {
	raw := strings.Repeat("ñ", 1000)
	_, err := Parse(raw)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if n := len([]rune(pe.Snippet)); n != MaxSnippet {
		t.Errorf("snippet has %d runes, want %d", n, MaxSnippet)
	}
}

func TestParseInto(t *testing.T) {
	var out struct {
		Name         string   `json:"name"`
		Technologies []string `json:"technologies"`
	}
	err := ParseInto("```json\n{\"name\":\"Ana\",\"technologies\":[\"Go\",\"Redis\",]}\n```", &out)
	if err != nil {
		t.Fatalf("ParseInto() error = %v", err)
	}
	if out.Name != "Ana" || len(out.Technologies) != 2 {
		t.Errorf("unexpected result %+v", out)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  {\"a\":1}  ", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"no fence here", "no fence here"},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSchema_Validate(t *testing.T) {
	s := MustCompileSchema("person.json", `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"tags": {"type": "array", "items": {"type": "string"}}
		}
	}`)

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"valid", `{"name": "Ana", "tags": ["go"]}`, ""},
		{"extra keys allowed", `{"age": 3}`, ""},
		{"wrong type", `{"name": 7}`, "/name"},
		{"wrong item", `{"tags": ["go", 1]}`, "/tags/1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			err = s.Validate(obj)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("Validate() error = %v, want *SchemaError", err)
			}
			if !strings.Contains(se.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", se.Error(), tt.wantErr)
			}
		})
	}
}

func TestCompileSchema_Invalid(t *testing.T) {
	if _, err := CompileSchema("bad.json", `{"type": 12}`); err == nil {
		t.Fatal("expected a compile error")
	}
}
