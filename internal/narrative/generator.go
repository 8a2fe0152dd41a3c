package narrative

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = `You write the water level outlook for a community beach and paddling dashboard covering Boundary Bay and Semiahmoo Bay. Rewrite the data brief below as two or three plain sentences for beach walkers and paddlers. Mention storm surge only when it is 0.2 m or more. Use only numbers that appear in the brief.`

// Generator rewrites surge briefs using OpenAI's chat API.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a new narrative generator.
// It reads the OPENAI_API_KEY environment variable for authentication.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  "gpt-4o-mini", // Small model; the brief carries all the facts
	}, nil
}

// Generate turns a data brief from BuildBrief into dashboard prose.
func (g *Generator) Generate(ctx context.Context, brief string) (string, error) {
	log.Printf("Generating surge narrative (%d byte brief)", len(brief))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(brief),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion returned")
	}

	log.Printf("Successfully generated surge narrative (%d bytes)", len(text))
	return text, nil
}
