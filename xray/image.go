package xray

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// maxUploadSide caps either dimension of images sent to the remote reader.
const maxUploadSide = 2048

// uploadJPEGQuality bounds the re-encoded upload size.
const uploadJPEGQuality = 85

// validateImage checks that the bytes decode to a known raster format
// without decoding the full pixel data.
func validateImage(imageBytes []byte) error {
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageBytes)); err != nil {
		return fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return nil
}

// shrinkForUpload downscales oversized images preserving aspect ratio and
// re-encodes as JPEG. Preprocessing failures return the original bytes
// unchanged; the remote call proceeds with the unmodified upload.
func shrinkForUpload(imageBytes []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return imageBytes, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxUploadSide || h > maxUploadSide {
		scale := float64(maxUploadSide) / float64(w)
		if h > w {
			scale = float64(maxUploadSide) / float64(h)
		}
		nw := int(float64(w)*scale + 0.5)
		nh := int(float64(h)*scale + 0.5)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: uploadJPEGQuality}); err != nil {
		return imageBytes, err
	}
	return buf.Bytes(), nil
}
