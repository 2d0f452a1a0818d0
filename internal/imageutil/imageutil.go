package imageutil

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/nanophoto/nanophoto/internal/aspect"
	"golang.org/x/image/draw"
)

// JPEGQuality is the lossy encode quality for captured artifacts,
// equivalent to the 0.92 canvas encode quality.
const JPEGQuality = 92

// SniffMIME detects the MIME type of raw image bytes.
func SniffMIME(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	if len(b) > 0 {
		return http.DetectContentType(b)
	}
	return "application/octet-stream"
}

// DataURL builds a data URL from a MIME type and raw bytes.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL decodes a base64 payload. Data URLs yield the MIME type from
// their prefix; bare base64 strings are accepted too.
func DecodeDataURL(s string) (data []byte, mime string, err error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, "", fmt.Errorf("malformed data URL")
		}
		meta := s[len("data:"):idx]
		if semi := strings.IndexByte(meta, ';'); semi >= 0 {
			mime = meta[:semi]
		} else {
			mime = meta
		}
		s = s[idx+1:]
	}
	if b, decErr := base64.StdEncoding.DecodeString(s); decErr == nil {
		return b, mime, nil
	}
	b, decErr := base64.URLEncoding.DecodeString(s)
	if decErr != nil {
		return nil, "", fmt.Errorf("invalid base64 image payload: %w", decErr)
	}
	return b, mime, nil
}

// PickMIME chooses a MIME type: explicit value first, then the data URL hint,
// then byte sniffing.
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return exp
	}
	if h := strings.TrimSpace(hint); h != "" {
		return h
	}
	if len(data) > 0 {
		return SniffMIME(data)
	}
	return "image/jpeg"
}

// Dimensions reads the pixel dimensions of an encoded image without decoding
// the full raster.
func Dimensions(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// RenderJPEG center-crops src to the ratio behind key, scales it into the
// fixed ratio-correct canvas, optionally mirrors it horizontally, and encodes
// a lossy JPEG artifact. The source must have a non-zero area.
func RenderJPEG(src image.Image, key aspect.Key, mirror bool) ([]byte, error) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("empty source frame")
	}

	crop := aspect.CenterCrop(b.Dx(), b.Dy(), aspect.Ratio(key))
	srcRect := image.Rect(
		b.Min.X+crop.SX,
		b.Min.Y+crop.SY,
		b.Min.X+crop.SX+crop.SWidth,
		b.Min.Y+crop.SY+crop.SHeight,
	)

	cw, ch := aspect.CanvasSize(key)
	dst := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, srcRect, draw.Src, nil)

	if mirror {
		flipHorizontal(dst)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode capture: %w", err)
	}
	return buf.Bytes(), nil
}

func flipHorizontal(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x, rx := b.Min.X, b.Max.X-1; x < rx; x, rx = x+1, rx-1 {
			l := img.RGBAAt(x, y)
			img.SetRGBA(x, y, img.RGBAAt(rx, y))
			img.SetRGBA(rx, y, l)
		}
	}
}

// FetchURL downloads an image over HTTP.
func FetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}
