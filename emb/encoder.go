package emb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Config describes the ONNX Runtime assets backing the dual encoder.
type Config struct {
	// OrtDLL points at the onnxruntime shared library. Empty uses the
	// platform default search path.
	OrtDLL string
	// VisionModelPath and TextModelPath are the exported CLIP branches.
	VisionModelPath string
	TextModelPath   string
	// TokenizerPath is the tokenizer.json matching the text branch.
	TokenizerPath string
	// MaxSeqLen caps token sequences fed to the text branch.
	MaxSeqLen int
	// ImageSize is the square input resolution of the vision branch.
	ImageSize int
}

func (c *Config) applyDefaults() {
	if c.MaxSeqLen <= 0 {
		c.MaxSeqLen = 256
	}
	if c.ImageSize <= 0 {
		c.ImageSize = 224
	}
}

// Encoder runs the image and text branches of a CLIP-style model through
// ONNX Runtime. A zero Encoder must be initialized with Init before use.
type Encoder struct {
	cfg    Config
	tk     *tokenizer.Tokenizer
	vision *ort.DynamicAdvancedSession
	text   *ort.DynamicAdvancedSession

	mu sync.Mutex
}

// The ORT environment is process global; initialize it once no matter how
// many encoders are constructed.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime(dll string) error {
	ortInitOnce.Do(func() {
		if dll != "" {
			ort.SetSharedLibraryPath(dll)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Init loads both model branches and the tokenizer.
func (e *Encoder) Init(cfg Config) error {
	cfg.applyDefaults()
	if cfg.VisionModelPath == "" || cfg.TextModelPath == "" {
		return errors.New("emb: vision and text model paths are required")
	}
	if cfg.TokenizerPath == "" {
		return errors.New("emb: tokenizer path is required")
	}
	if err := initRuntime(cfg.OrtDLL); err != nil {
		return fmt.Errorf("init onnxruntime: %w", err)
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}

	vision, err := ort.NewDynamicAdvancedSession(cfg.VisionModelPath,
		[]string{"pixel_values"}, []string{"image_embeds"}, nil)
	if err != nil {
		return fmt.Errorf("load vision model: %w", err)
	}
	text, err := ort.NewDynamicAdvancedSession(cfg.TextModelPath,
		[]string{"input_ids", "attention_mask"}, []string{"text_embeds"}, nil)
	if err != nil {
		vision.Destroy()
		return fmt.Errorf("load text model: %w", err)
	}

	e.cfg = cfg
	e.tk = tk
	e.vision = vision
	e.text = text
	return nil
}

// Close releases the ONNX sessions.
func (e *Encoder) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.vision != nil {
		e.vision.Destroy()
		e.vision = nil
	}
	if e.text != nil {
		e.text.Destroy()
		e.text = nil
	}
	e.tk = nil
	return nil
}

// run executes a session while holding the encoder lock; ORT sessions are
// not documented as safe for concurrent Run calls.
func (e *Encoder) run(sess *ort.DynamicAdvancedSession, inputs []ort.Value) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sess == nil {
		return nil, errors.New("emb: encoder is not initialized")
	}
	outputs := []ort.Value{nil}
	if err := sess.Run(inputs, outputs); err != nil {
		return nil, err
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		outputs[0].Destroy()
		return nil, fmt.Errorf("emb: unexpected output tensor type %T", outputs[0])
	}
	defer out.Destroy()
	data := out.GetData()
	vec := make([]float32, len(data))
	copy(vec, data)
	return vec, nil
}
