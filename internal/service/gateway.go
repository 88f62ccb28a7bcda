package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"devscreen/internal/config"
	"devscreen/internal/model"
)

// GatewayRequest is what the LLM gateway sees of a screening
type GatewayRequest struct {
	AgeMonths     int
	Domain        string
	Observations  string
	Image         []byte
	ImageMimeType string
}

// Gateway produces a screening report from an LLM
type Gateway interface {
	Screen(ctx context.Context, req *GatewayRequest) (*model.ScreeningReport, error)
	Model() string
}

// GeminiGateway calls Gemini through the genai SDK
type GeminiGateway struct {
	client *genai.Client
	model  string
}

// NewGeminiGateway creates a gateway for the configured model
func NewGeminiGateway(ctx context.Context, cfg *config.AIConfig) (*GeminiGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGateway{client: client, model: cfg.Model}, nil
}

// Model returns the model name used for screening calls
func (g *GeminiGateway) Model() string {
	return g.model
}

// Screen asks the model for a report in the ScreeningReport JSON shape
func (g *GeminiGateway) Screen(ctx context.Context, req *GatewayRequest) (*model.ScreeningReport, error) {
	parts := []*genai.Part{genai.NewPartFromText(buildScreeningPrompt(req))}
	if len(req.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Image, req.ImageMimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	temperature := float32(0.2)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty response from Gemini")
	}
	return parseGatewayReport(text)
}

// parseGatewayReport decodes the model's JSON, tolerating a markdown fence
func parseGatewayReport(text string) (*model.ScreeningReport, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	var report model.ScreeningReport
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, fmt.Errorf("decode gateway report: %w", err)
	}
	return &report, nil
}

func buildScreeningPrompt(req *GatewayRequest) string {
	domain := req.Domain
	if domain == "" {
		domain = "general"
	}
	image := "no"
	if len(req.Image) > 0 {
		image = "yes (attached)"
	}

	return fmt.Sprintf(`You are assisting a clinician with a pediatric developmental screening.
This is a screening aid, not a diagnosis. When unsure, prefer the more cautious risk level.
Return ONLY valid JSON matching this schema:
{
  "riskLevel": "low" | "monitor" | "high" | "refer",
  "confidence": 0.0 to 1.0,
  "summary": "one sentence",
  "keyFindings": ["finding"],
  "recommendations": ["recommendation"],
  "evidence": [{"type": "text" | "image", "content": "snippet", "influence": 0.0 to 1.0}]
}

Child age (months): %d
Developmental domain: %s
Image provided: %s
Caregiver observations:
%s`, req.AgeMonths, domain, image, req.Observations)
}
