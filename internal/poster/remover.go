package poster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	goerrors "github.com/goliatone/go-errors"
)

// BackgroundRemover returns img with its background made transparent.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, img image.Image) (image.Image, error)
}

// HTTPRemover posts the photo as PNG to an external segmentation service and
// decodes the image it answers with.
type HTTPRemover struct {
	URL    string
	Client *http.Client
}

func NewHTTPRemover(url string, client *http.Client) *HTTPRemover {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRemover{URL: url, Client: client}
}

func (r *HTTPRemover) RemoveBackground(ctx context.Context, img image.Image) (image.Image, error) {
	var body bytes.Buffer
	if err := EncodePNG(&body, img); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "image/png")
	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxUploadSize*4))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("poster: background removal returned %d", resp.StatusCode)
	}
	out, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("poster: background removal answer: %w", err)
	}
	return out, nil
}

func removalFailed(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "background removal failed").
		WithTextCode("BG_REMOVAL_FAILED")
}
