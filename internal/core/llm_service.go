package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultAnswerModelName        = "gemini-2.5-flash"
	defaultTranscriptionModelName = "gemini-2.5-flash"
	defaultEmbeddingModelName     = "text-embedding-004"

	transcriptionInstruction = "Transcribe the audio exactly as spoken. " +
		"Be precise and natural in the transcription. Use proper punctuation " +
		"and break the text into paragraphs where appropriate. Return only the transcription."

	answerSystemInstruction = "You are an assistant that answers questions about a recorded session. " +
		"Use only the provided context passages to answer. " +
		"If the answer is not found in the context, clearly state that you don't have enough information. " +
		"Keep the answer concise and directly related to the question. Do not make up information."
)

// AI is the contract the services need from the generative backend:
// speech-to-text, text embedding, and context-grounded answer generation.
type AI interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
	GenerateAnswer(ctx context.Context, question string, passages []string) (string, error)
}

type LLMService struct {
	client *genai.Client
}

var _ AI = (*LLMService)(nil)

func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

// Transcribe converts an audio payload into text.
func (s *LLMService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	model := s.client.GenerativeModel(defaultTranscriptionModelName)

	resp, err := model.GenerateContent(ctx,
		genai.Text(transcriptionInstruction),
		genai.Blob{MIMEType: mimeType, Data: audio},
	)
	if err != nil {
		return "", fmt.Errorf("gemini transcription request failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned no transcription text")
	}
	return text, nil
}

func (s *LLMService) Embed(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(defaultEmbeddingModelName)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// GenerateAnswer answers a question using the given context passages,
// ordered most relevant first.
func (s *LLMService) GenerateAnswer(ctx context.Context, question string, passages []string) (string, error) {
	model := s.client.GenerativeModel(defaultAnswerModelName)

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(answerSystemInstruction)},
	}

	prompt := fmt.Sprintf(
		"Context from the recorded session:\n\n--- CONTEXT START ---\n%s\n--- CONTEXT END ---\n\nQuestion: %s",
		strings.Join(passages, "\n\n"), question,
	)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini answer generation failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned no answer text")
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	return strings.TrimSpace(b.String())
}
