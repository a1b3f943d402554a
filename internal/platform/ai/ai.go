// Package ai wraps the hosted model endpoint behind the three calls the
// clinic needs: symptom classification, patient guidance, and prescription
// extraction from images.
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const classifyPrompt = `Return ONLY one specialization from this list:

Cardiology
Neurology
Orthopedic
Dermatology
Pediatrics
General
ENT
Gynecology

No extra words.`

const advisePrompt = `You are a medical AI assistant.

Return in format:

Disease:
Doctor:
Precautions:
Immediate Steps:

Keep simple.`

const extractPrompt = `Extract medicine names from prescription.

Return JSON only:

{
 "medicines":[
  {
   "medicine_name":"",
   "strength":""
  }
 ],
 "total_medicines":0
}`

// ExtractedMedicine is one medicine the vision model read off a prescription.
type ExtractedMedicine struct {
	MedicineName string `json:"medicine_name" bson:"medicine_name"`
	Strength     string `json:"strength" bson:"strength"`
}

// Extraction is the parsed result of a prescription scan.
type Extraction struct {
	Medicines      []ExtractedMedicine `json:"medicines"`
	TotalMedicines int                 `json:"total_medicines"`
}

// MalformedExtractionError is returned when the vision model produced
// something that does not parse as the requested JSON shape. Raw carries the
// model output verbatim so callers can surface it.
type MalformedExtractionError struct {
	Raw string
}

func (e *MalformedExtractionError) Error() string {
	return "ai: model returned invalid extraction JSON"
}

// Client talks to an OpenAI-compatible chat endpoint (a local Ollama server
// in the default configuration).
type Client struct {
	api         *openai.Client
	chatModel   string
	visionModel string
}

// NewClient builds a Client against baseURL. apiKey may be empty for
// endpoints that do not check it.
func NewClient(baseURL, apiKey, chatModel, visionModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		chatModel:   chatModel,
		visionModel: visionModel,
	}
}

// Classify asks the chat model for a single specialization label describing
// the symptom. The response is returned trimmed but otherwise unvalidated;
// callers own the closed-set check.
func (c *Client) Classify(ctx context.Context, symptom string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifyPrompt},
			{Role: openai.ChatMessageRoleUser, Content: symptom},
		},
	})
	if err != nil {
		return "", fmt.Errorf("classify symptom: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("classify symptom: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Advise asks the chat model for structured patient guidance text.
func (c *Client) Advise(ctx context.Context, symptom string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: advisePrompt},
			{Role: openai.ChatMessageRoleUser, Content: symptom},
		},
	})
	if err != nil {
		return "", fmt.Errorf("advise: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("advise: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ExtractMedicines sends prescription images to the vision model and parses
// the JSON it returns. A response that is not valid JSON yields a
// *MalformedExtractionError carrying the raw text.
func (c *Client) ExtractMedicines(ctx context.Context, images [][]byte) (*Extraction, error) {
	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: extractPrompt},
	}
	for _, img := range images {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
			},
		})
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract medicines: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extract medicines: empty completion")
	}
	return parseExtraction(resp.Choices[0].Message.Content)
}

func parseExtraction(raw string) (*Extraction, error) {
	var ext Extraction
	if err := json.Unmarshal([]byte(raw), &ext); err != nil {
		return nil, &MalformedExtractionError{Raw: raw}
	}
	return &ext, nil
}
