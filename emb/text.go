package emb

import (
	"context"
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// EncodeText embeds a single string with the text branch.
func (e *Encoder) EncodeText(_ context.Context, text string) ([]float32, error) {
	if e == nil || e.tk == nil {
		return nil, errors.New("emb: encoder is not initialized")
	}
	en, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	ids := en.Ids
	mask := en.AttentionMask
	if len(ids) > e.cfg.MaxSeqLen {
		ids = ids[:e.cfg.MaxSeqLen]
		mask = mask[:e.cfg.MaxSeqLen]
	}
	if len(ids) == 0 {
		return nil, errors.New("emb: empty token sequence")
	}

	idData := make([]int64, len(ids))
	maskData := make([]int64, len(ids))
	for i, id := range ids {
		idData[i] = int64(id)
		maskData[i] = int64(mask[i])
	}

	shape := ort.NewShape(1, int64(len(ids)))
	idTensor, err := ort.NewTensor(shape, idData)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer idTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, maskData)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	vec, err := e.run(e.text, []ort.Value{idTensor, maskTensor})
	if err != nil {
		return nil, fmt.Errorf("text branch: %w", err)
	}
	return vec, nil
}
