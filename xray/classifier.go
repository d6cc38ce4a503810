package xray

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"
)

// Encoder is the minimal dual-encoder surface the classifier needs. The
// production implementation lives in the emb package.
type Encoder interface {
	EncodeImage(ctx context.Context, imageBytes []byte) ([]float32, error)
	EncodeText(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// Classifier scores an X-ray against the condition catalogue in a shared
// embedding space. The encoder and the catalogue prompt embeddings are
// built lazily on first use and are read-only afterwards, so a single
// Classifier is safe for concurrent requests.
type Classifier struct {
	newEncoder func() (Encoder, error)
	logger     *log.Logger

	initGroup singleflight.Group

	mu         sync.RWMutex
	enc        Encoder
	promptVecs [][]float32
}

// NewClassifier wires a lazily constructed encoder. newEncoder is invoked
// at most once per successful initialization.
func NewClassifier(newEncoder func() (Encoder, error), logger *log.Logger) *Classifier {
	return &Classifier{newEncoder: newEncoder, logger: logger}
}

// Warmup forces initialization ahead of the first request.
func (c *Classifier) Warmup(ctx context.Context) error {
	return c.ensureReady(ctx)
}

// Close releases the underlying encoder if it was ever built.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enc != nil {
		err := c.enc.Close()
		c.enc = nil
		c.promptVecs = nil
		return err
	}
	return nil
}

// ensureReady builds the encoder and the catalogue prompt embeddings at
// most once. Concurrent first callers share a single in-flight load; a
// failed load is retried by the next caller rather than cached.
func (c *Classifier) ensureReady(ctx context.Context) error {
	c.mu.RLock()
	ready := c.enc != nil
	c.mu.RUnlock()
	if ready {
		return nil
	}

	_, err, _ := c.initGroup.Do("init", func() (any, error) {
		c.mu.RLock()
		ready := c.enc != nil
		c.mu.RUnlock()
		if ready {
			return nil, nil
		}

		c.logf("[classifier] loading dual encoder and %d catalogue prompts", len(catalogue))
		enc, err := c.newEncoder()
		if err != nil {
			return nil, fmt.Errorf("%w: build encoder: %v", ErrClassifier, err)
		}
		vecs := make([][]float32, len(catalogue))
		for i, rec := range catalogue {
			vec, err := enc.EncodeText(ctx, norm.NFKC.String(promptText(rec)))
			if err != nil {
				_ = enc.Close()
				return nil, fmt.Errorf("%w: embed prompt %q: %v", ErrClassifier, rec.Code, err)
			}
			vecs[i] = unitNormalize(vec)
		}

		c.mu.Lock()
		c.enc = enc
		c.promptVecs = vecs
		c.mu.Unlock()
		c.logf("[classifier] ready, %d conditions", len(catalogue))
		return nil, nil
	})
	return err
}

// Classify embeds the image and returns a full-catalogue ranked list whose
// probabilities sum to 1, sorted descending with catalogue order as the
// stable tie-break.
func (c *Classifier) Classify(ctx context.Context, imageBytes []byte) ([]RankedPrediction, error) {
	if err := validateImage(imageBytes); err != nil {
		return nil, err
	}
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	enc := c.enc
	promptVecs := c.promptVecs
	c.mu.RUnlock()

	imgVec, err := enc.EncodeImage(ctx, imageBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: embed image: %v", ErrClassifier, err)
	}
	imgVec = unitNormalize(imgVec)

	sims := make([]float64, len(promptVecs))
	for i, tv := range promptVecs {
		sims[i] = cosineSimilarity(imgVec, tv)
	}
	probs := softmax(sims)

	ranked := make([]RankedPrediction, len(catalogue))
	for i, rec := range catalogue {
		ranked[i] = RankedPrediction{Record: rec, Probability: probs[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})
	return ranked, nil
}

func (c *Classifier) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

func unitNormalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// softmax converts similarity scores to a probability distribution, with
// max subtraction for numeric stability.
func softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
