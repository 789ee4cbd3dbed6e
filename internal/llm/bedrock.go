// Package llm provides the completion client behind review generation.
// All model traffic goes through AWS Bedrock - no external API calls.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/lumera/insight-engine/internal/pkg/logger"
)

const defaultModelID = "anthropic.claude-3-sonnet-20240229-v1:0"

// BedrockClient calls a Bedrock-hosted model and satisfies the review
// package's Generator interface.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
	region  string
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// systemPrompt keeps the model in the reviewer role regardless of what the
// rendered prompt contains.
const systemPrompt = `You are the analytics reviewer inside a social media marketing tool. You write monthly performance reviews and concrete posting plans from the metrics you are given. Never invent numbers that are not in the input, and answer in the exact section format the request asks for.`

// NewBedrockClient loads the default AWS credential chain for the given
// region and targets the given model. Empty arguments fall back to
// us-east-1 and the default Claude model.
func NewBedrockClient(ctx context.Context, region, modelID string) (*BedrockClient, error) {
	if region == "" {
		region = "us-east-1"
	}
	if modelID == "" {
		modelID = defaultModelID
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	c := &BedrockClient{
		client:  bedrockruntime.NewFromConfig(cfg),
		modelID: modelID,
		region:  region,
	}
	logger.Info("bedrock client initialized", "model", modelID, "region", region)
	return c, nil
}

// Complete sends one prompt and returns the model's text output.
func (c *BedrockClient) Complete(ctx context.Context, prompt string) (string, error) {
	request := bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		System:           systemPrompt,
		Messages: []bedrockMessage{
			{
				Role:    "user",
				Content: []bedrockContentBlock{{Type: "text", Text: prompt}},
			},
		},
		Temperature: 0.7,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", fmt.Errorf("Bedrock API error: %w", err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var text string
	for _, content := range response.Content {
		if content.Type == "text" {
			text += content.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty completion (stop reason %q)", response.StopReason)
	}

	logger.Debug("bedrock completion",
		"input_tokens", response.Usage.InputTokens,
		"output_tokens", response.Usage.OutputTokens)
	return text, nil
}

// ModelID returns the configured Bedrock model.
func (c *BedrockClient) ModelID() string {
	return c.modelID
}
