package visual

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIImageModel is the default OpenAI image model.
const DefaultOpenAIImageModel = "gpt-image-1"

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// OpenAIProvider generates images with the OpenAI images API.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI image provider.
func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY or ai.openai.api_key")
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenAIImageModel
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &OpenAIProvider{client: openai.NewClient(reqOpts...), model: opts.Model}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate creates one image. The API returns base64 data or a URL
// depending on the model.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	resp, err := p.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(p.model),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize(SizeFor(p.model, aspectRatio)),
	})
	if err != nil {
		return Image{}, fmt.Errorf("openai images: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return Image{}, ErrNoImage
	}

	img := resp.Data[0]
	switch {
	case img.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return Image{}, fmt.Errorf("failed to decode base64 image: %w", err)
		}
		return Image{Data: data, ContentType: http.DetectContentType(data)}, nil
	case img.URL != "":
		return Image{URL: img.URL}, nil
	default:
		return Image{}, ErrNoImage
	}
}

// SizeFor maps an aspect ratio to a size the model accepts.
func SizeFor(model, aspectRatio string) string {
	wide := aspectRatio == "16:9" || aspectRatio == "4:3" || aspectRatio == "3:2"
	tall := aspectRatio == "9:16" || aspectRatio == "3:4" || aspectRatio == "2:3"
	if model == "dall-e-3" {
		switch {
		case wide:
			return "1792x1024"
		case tall:
			return "1024x1792"
		}
		return "1024x1024"
	}
	switch {
	case wide:
		return "1536x1024"
	case tall:
		return "1024x1536"
	}
	return "1024x1024"
}
