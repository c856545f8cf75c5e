package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// JPEGQuality matches what the gallery has always stored for converted stills.
const JPEGQuality = 80

// Decoder converts in-process using the registered image decoders.
type Decoder struct{}

func (Decoder) ToJPEG(ctx context.Context, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()

	img, format, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(dst, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		dst.Close()
		return fmt.Errorf("encode jpeg from %s: %w", format, err)
	}
	return dst.Close()
}

// ConverterChain tries each converter in order and returns the first success.
type ConverterChain []ImageConverter

func (c ConverterChain) ToJPEG(ctx context.Context, in, out string) error {
	var errs []error
	for _, conv := range c {
		err := conv.ToJPEG(ctx, in, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Debug("image converter failed, trying next", "converter", fmt.Sprintf("%T", conv), "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return ErrUnsupportedImage
	}
	return fmt.Errorf("%w: %w", ErrUnsupportedImage, errors.Join(errs...))
}
