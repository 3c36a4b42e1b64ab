package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/vidprofile/ai"
	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/testutil"
)

const testConfig = `name: vidprofile-test
environment: development
logging:
  level: error
prompts:
  backend: memory
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Tree(t *testing.T) {
	cmd := NewRootCommand()
	want := []string{"assess", "process", "prompts", "providers", "version"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not found", name)
		}
	}
	for _, flag := range []string{"config", "env-file", "log-level", "request-id"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestGlobalOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"empty", "", false},
		{"uuid", "3f1c2a7e-8d4b-4c55-9a0e-2b7f6d1e9c33", false},
		{"garbage", "not-a-uuid", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &GlobalOptions{RequestID: tt.id}
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProcess_RequiresVideo(t *testing.T) {
	if _, err := execute(t, "process"); err == nil {
		t.Fatal("expected an argument error")
	}
}

func TestAssessOptions_Fields(t *testing.T) {
	path := testutil.WriteFile(t, "profile.json", []byte(`{
		"profession": "Data engineer",
		"technologies": ["Python", "Spark"],
		"experience": "6 years"
	}`))

	o := &AssessOptions{ProfileFile: path, Technologies: "Go, Kafka"}
	fields, err := o.Fields()
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	if fields.Profession != "Data engineer" {
		t.Errorf("profession = %q", fields.Profession)
	}
	if fields.Technologies != "Go, Kafka" {
		t.Errorf("technologies = %q, flag should win", fields.Technologies)
	}
	if fields.Education != ai.Unspecified {
		t.Errorf("education = %q, want %q", fields.Education, ai.Unspecified)
	}
}

func TestAssessOptions_FieldsBadFile(t *testing.T) {
	path := testutil.WriteFile(t, "profile.json", []byte(`[1, 2]`))
	o := &AssessOptions{ProfileFile: path}
	_, err := o.Fields()
	if !goerrors.HasCode(err, goerrors.ErrCodeInvalidInput) {
		t.Fatalf("Fields() error = %v, want INVALID_INPUT", err)
	}
}

func TestTemplateBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmpl.txt")
	if err := os.WriteFile(path, []byte("Hello {profession}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, err := templateBody(path, ""); err != nil || got != "Hello {profession}" {
		t.Errorf("templateBody(file) = %q, %v", got, err)
	}
	if got, err := templateBody("", "inline"); err != nil || got != "inline" {
		t.Errorf("templateBody(text) = %q, %v", got, err)
	}
	if _, err := templateBody("", "   "); err == nil {
		t.Error("expected an error for blank text")
	}
}

func TestPromptsList(t *testing.T) {
	cfg := testutil.WriteFile(t, "config.yml", []byte(testConfig))
	out, err := execute(t, "prompts", "list", "--config", cfg)
	if err != nil {
		t.Fatalf("prompts list: %v", err)
	}
	for _, name := range []string{ai.TemplateProfileExtraction, ai.TemplateCVGeneration, ai.TemplateTechnicalTest} {
		if !strings.Contains(out, name) {
			t.Errorf("output missing %q:\n%s", name, out)
		}
	}
}

func TestPromptsGet(t *testing.T) {
	cfg := testutil.WriteFile(t, "config.yml", []byte(testConfig))
	out, err := execute(t, "prompts", "get", ai.TemplateTechnicalTest, "--config", cfg)
	if err != nil {
		t.Fatalf("prompts get: %v", err)
	}
	if !strings.Contains(out, "{profession}") {
		t.Errorf("template text missing placeholder:\n%s", out)
	}

	if _, err := execute(t, "prompts", "get", "nope", "--config", cfg); err == nil {
		t.Error("expected an error for an unknown template")
	}
}

func TestAssessOptions_FieldsRejectsNestedValues(t *testing.T) {
	path := testutil.WriteFile(t, "profile.json", []byte(`{"profession": {"title": "SRE"}}`))
	o := &AssessOptions{ProfileFile: path}
	_, err := o.Fields()
	if !goerrors.HasCode(err, goerrors.ErrCodeInvalidInput) {
		t.Fatalf("Fields() error = %v, want INVALID_INPUT", err)
	}
	if !strings.Contains(err.Error(), "/profession") {
		t.Errorf("error %q does not name the field", err)
	}
}

func TestPromptsExport(t *testing.T) {
	cfg := testutil.WriteFile(t, "config.yml", []byte(testConfig))
	out, err := execute(t, "prompts", "export", "--config", cfg)
	if err != nil {
		t.Fatalf("prompts export: %v", err)
	}
	if !strings.HasPrefix(out, "prompts:") || !strings.Contains(out, "name: "+ai.TemplateCVGeneration) {
		t.Errorf("unexpected export:\n%s", out)
	}
}
