package visual

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultImagenModel is the default Imagen model.
const DefaultImagenModel = "imagen-3.0-generate-002"

// imagesAPI is the part of genai.Models used here.
type imagesAPI interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// ImagenProvider generates images with Google Imagen.
type ImagenProvider struct {
	api   imagesAPI
	model string
}

// NewImagenProvider wraps a genai Models service.
func NewImagenProvider(api imagesAPI, model string) *ImagenProvider {
	if model == "" {
		model = DefaultImagenModel
	}
	return &ImagenProvider{api: api, model: model}
}

// Name returns the provider name.
func (p *ImagenProvider) Name() string {
	return "imagen"
}

// Generate creates one image with the given aspect ratio.
func (p *ImagenProvider) Generate(ctx context.Context, prompt, aspectRatio string) (Image, error) {
	resp, err := p.api.GenerateImages(ctx, p.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		return Image{}, fmt.Errorf("imagen: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return Image{}, ErrNoImage
	}
	generated := resp.GeneratedImages[0]
	if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
		if generated != nil && generated.RAIFilteredReason != "" {
			return Image{}, fmt.Errorf("%w: filtered: %s", ErrNoImage, generated.RAIFilteredReason)
		}
		return Image{}, ErrNoImage
	}

	contentType := generated.Image.MIMEType
	if contentType == "" {
		contentType = "image/png"
	}
	return Image{Data: generated.Image.ImageBytes, ContentType: contentType}, nil
}
