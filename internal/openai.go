package internal

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// TranscriptionClient turns an audio file into text.
type TranscriptionClient interface {
	CreateTranscription(ctx context.Context, file *os.File) (string, error)
}

// ChatCompleter produces a completion for a prompt. Both the OpenAI and
// Gemini clients implement it, so the labeler is provider-agnostic.
type ChatCompleter interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// OpenAIClient wraps the official OpenAI Go SDK
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey string) *OpenAIClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{client: &client}
}

// CreateTranscription implements the Whisper transcription call
func (c *OpenAIClient) CreateTranscription(ctx context.Context, file *os.File) (string, error) {
	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  file,
		Model: openai.AudioModelWhisper1,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Complete implements the chat completion call
func (c *OpenAIClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	// Map model string to openai model constant
	var oaiModel openai.ChatModel
	switch model {
	case "gpt-4o":
		oaiModel = openai.ChatModelGPT4o
	case "gpt-4o-mini":
		oaiModel = openai.ChatModelGPT4oMini
	case "o4-mini":
		oaiModel = openai.ChatModelO4Mini
	case "gpt-4.1-nano":
		oaiModel = openai.ChatModelGPT4_1Nano
	default:
		return "", fmt.Errorf("unsupported model: %s", model)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: oaiModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// Whisper transcribes downloaded audio through OpenAI's Whisper API,
// splitting files above the API size limit into chunks first.
type Whisper struct {
	client   TranscriptionClient
	splitter *AudioSplitter
	limit    int64
	timeout  time.Duration
	verbose  bool
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(client TranscriptionClient, splitter *AudioSplitter, limit int64, timeout time.Duration, verbose bool) *Whisper {
	return &Whisper{
		client:   client,
		splitter: splitter,
		limit:    limit,
		timeout:  timeout,
		verbose:  verbose,
	}
}

// Transcribe transcribes an audio file, chunking as needed.
func (w *Whisper) Transcribe(ctx context.Context, audioFile string) (string, error) {
	if w.verbose {
		fmt.Printf("Transcribing audio file: %s\n", audioFile)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	info, err := os.Stat(audioFile)
	if err != nil {
		return "", fmt.Errorf("getting audio file info: %w", err)
	}

	numChunks := int(math.Ceil(float64(info.Size()) / float64(w.limit)))

	var chunks []string
	if numChunks > 1 {
		chunks, err = w.splitter.Split(ctx, audioFile, numChunks)
		if err != nil {
			return "", fmt.Errorf("splitting audio: %w", err)
		}
	} else {
		chunks = []string{audioFile}
	}

	defer func() {
		cleanupFiles(chunks...)
		if len(chunks) > 1 {
			cleanupFiles(audioFile)
		}
	}()

	transcript, err := w.processChunks(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}
	return transcript, nil
}

// processChunks transcribes audio chunks sequentially. Concurrent requests
// occasionally returned broken transcripts, sequential is reliable.
func (w *Whisper) processChunks(ctx context.Context, chunks []string) (string, error) {
	numChunks := len(chunks)

	if w.verbose {
		fmt.Printf("Transcribing chunks (%d)\n", numChunks)
	}

	var sb strings.Builder
	for i, chunkPath := range chunks {
		file, err := os.Open(chunkPath)
		if err != nil {
			return "", fmt.Errorf("opening chunk %s: %w", chunkPath, err)
		}

		text, err := w.client.CreateTranscription(ctx, file)
		if closeErr := file.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close file %s: %v\n", chunkPath, closeErr)
		}
		if err != nil {
			return "", fmt.Errorf("transcribing chunk %d: %w", i+1, err)
		}

		sb.WriteString(text)
		if i < numChunks-1 {
			sb.WriteString("\n")
		}

		if w.verbose {
			fmt.Printf("Transcribed chunk %d/%d\n", i+1, numChunks)
		}
	}

	return sb.String(), nil
}
