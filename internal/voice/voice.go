// Package voice transcribes user audio and synthesizes companion replies.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const maxSpeechInput = 4096

// Options configures the voice service.
type Options struct {
	APIKey          string
	BaseURL         string
	TTSModel        string
	Voice           string
	TranscribeModel string
}

// Service calls the OpenAI audio endpoints.
type Service struct {
	client          *openai.Client
	ttsModel        string
	voice           string
	transcribeModel string
}

// NewService creates a voice Service.
func NewService(opts Options) (*Service, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("API key is required for voice")
	}
	if opts.TTSModel == "" {
		opts.TTSModel = "gpt-4o-mini-tts"
	}
	if opts.Voice == "" {
		opts.Voice = "alloy"
	}
	if opts.TranscribeModel == "" {
		opts.TranscribeModel = string(openai.AudioModelWhisper1)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &Service{
		client:          &client,
		ttsModel:        opts.TTSModel,
		voice:           opts.Voice,
		transcribeModel: opts.TranscribeModel,
	}, nil
}

// Transcribe converts recorded audio to text.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio cannot be empty")
	}
	if filename == "" {
		filename = "audio.webm"
	}

	resp, err := s.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), filepath.Base(filename), contentType(filename)),
		Model: openai.AudioModel(s.transcribeModel),
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("transcription returned no text")
	}
	return text, nil
}

// Synthesize renders text to MP3 audio.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if runes := []rune(text); len(runes) > maxSpeechInput {
		text = string(runes[:maxSpeechInput])
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.ttsModel),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	}, option.WithJSONSet("voice", s.voice))
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech endpoint returned status %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech endpoint returned no audio")
	}
	return audio, nil
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/webm"
	}
}
