package emb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	ort "github.com/yalue/onnxruntime_go"
)

// CLIP normalization constants used by the BiomedCLIP preprocessing pipeline.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// EncodeImage decodes, preprocesses and embeds raw image bytes with the
// vision branch.
func (e *Encoder) EncodeImage(_ context.Context, imageBytes []byte) ([]float32, error) {
	if e == nil || e.vision == nil {
		return nil, errors.New("emb: encoder is not initialized")
	}
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	data := pixelValues(img, e.cfg.ImageSize)

	side := int64(e.cfg.ImageSize)
	tensor, err := ort.NewTensor(ort.NewShape(1, 3, side, side), data)
	if err != nil {
		return nil, fmt.Errorf("pixel_values tensor: %w", err)
	}
	defer tensor.Destroy()

	vec, err := e.run(e.vision, []ort.Value{tensor})
	if err != nil {
		return nil, fmt.Errorf("vision branch: %w", err)
	}
	return vec, nil
}

// pixelValues resizes to a square RGB raster and emits a normalized NCHW
// float32 buffer.
func pixelValues(img image.Image, size int) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	data := make([]float32, 3*size*size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := dst.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float32(dst.Pix[off+c]) / 255.0
				data[c*plane+y*size+x] = (v - clipMean[c]) / clipStd[c]
			}
		}
	}
	return data
}
