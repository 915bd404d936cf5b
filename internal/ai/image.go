package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/png"
	"log/slog"

	"github.com/myrjola/mysteries/internal/errors"
	"github.com/sashabaranov/go-openai"
)

var ErrNoImages = errors.NewSentinel("image generation returned no images")

// Illustrate generates a square PNG image for prompt with DALL-E 3.
func (c *Client) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	response, err := c.client.CreateImage(ctx, openai.ImageRequest{ //nolint:exhaustruct // this is better for readability
		Model:          openai.CreateImageModelDallE3,
		Prompt:         prompt,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image")
	}
	if len(response.Data) == 0 {
		return nil, ErrNoImages
	}

	imgBytes, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, errors.Wrap(err, "decode base64 image")
	}
	if _, err = png.DecodeConfig(bytes.NewReader(imgBytes)); err != nil {
		return nil, errors.Wrap(err, "decode PNG header", slog.Int("bytes", len(imgBytes)))
	}
	return imgBytes, nil
}
