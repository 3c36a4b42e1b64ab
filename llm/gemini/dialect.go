package gemini

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/kbukum/vidprofile/llm"
)

// DialectName is the registered dialect name.
const DialectName = "gemini"

func init() {
	llm.RegisterDialect(DialectName, Dialect{})
}

// Dialect maps completions onto the generateContent REST API.
type Dialect struct{}

// Name implements llm.Dialect.
func (Dialect) Name() string { return DialectName }

// ChatPath implements llm.Dialect. The model is part of the URL.
func (Dialect) ChatPath(req llm.CompletionRequest) string {
	return "/models/" + req.Model + ":generateContent"
}

// HealthPath implements llm.Dialect. The API has no health endpoint.
func (Dialect) HealthPath() string { return "" }

// BuildRequest implements llm.Dialect.
func (Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	if req.Model == "" {
		return nil, errors.New("gemini: model is required")
	}
	body := generateRequest{
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.JSONMode {
		body.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			if body.SystemInstruction == nil {
				body.SystemInstruction = &content{}
			}
			body.SystemInstruction.Parts = append(body.SystemInstruction.Parts, part{Text: m.Content})
		case llm.RoleAssistant:
			body.Contents = append(body.Contents, content{Role: "model", Parts: []part{{Text: m.Content}}})
		default:
			body.Contents = append(body.Contents, content{Role: "user", Parts: []part{{Text: m.Content}}})
		}
	}
	if len(body.Contents) == 0 {
		return nil, errors.New("gemini: at least one user message is required")
	}
	return body, nil
}

// ParseResponse implements llm.Dialect. Text parts of the first candidate
// are concatenated.
func (Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, errors.New("gemini: prompt blocked: " + resp.PromptFeedback.BlockReason)
		}
		return nil, errors.New("gemini: response has no candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	out := &llm.CompletionResponse{Content: sb.String(), Model: resp.ModelVersion}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
	}
	return out, nil
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	TopP             float64 `json:"topP,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}
