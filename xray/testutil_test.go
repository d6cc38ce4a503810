package xray

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
)

// makeTestPNG returns a small valid PNG.
func makeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// makeTestJPEG returns a valid JPEG of the given size.
func makeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// stubEncoder returns one-hot text embeddings in call order and a fixed
// image embedding, so cosine similarities equal the image vector's
// components and rankings are fully deterministic.
type stubEncoder struct {
	imgVec []float32

	mu        sync.Mutex
	textCalls int
	closed    bool
}

func (s *stubEncoder) EncodeText(_ context.Context, _ string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vec := make([]float32, CatalogueSize())
	vec[s.textCalls%CatalogueSize()] = 1
	s.textCalls++
	return vec, nil
}

func (s *stubEncoder) EncodeImage(_ context.Context, _ []byte) ([]float32, error) {
	vec := make([]float32, len(s.imgVec))
	copy(vec, s.imgVec)
	return vec, nil
}

func (s *stubEncoder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// newStubClassifier builds a classifier over a stub encoder and counts
// encoder constructions.
func newStubClassifier(imgVec []float32) (*Classifier, *int) {
	constructions := 0
	enc := &stubEncoder{imgVec: imgVec}
	c := NewClassifier(func() (Encoder, error) {
		constructions++
		return enc, nil
	}, nil)
	return c, &constructions
}

// stubReader scripts the remote tier for orchestration tests.
type stubReader struct {
	configured bool
	text       string
	ok         bool
	calls      int
}

func (s *stubReader) Configured() bool { return s.configured }

func (s *stubReader) Read(_ context.Context, _ []byte) (string, bool) {
	s.calls++
	return s.text, s.ok
}
