package xray

import (
	"context"
	"log"
	"time"
)

// Analyzer is the single entry point of the core: it selects the inference
// tier, degrades from the remote reader to the classifier, and normalizes
// the outcome into a CanonicalReport. All intermediate values are request
// scoped.
type Analyzer struct {
	classifier *Classifier
	reader     Reader
	logger     *log.Logger
}

// NewAnalyzer wires the two tiers. reader may be nil for classifier-only
// deployments.
func NewAnalyzer(classifier *Classifier, reader Reader, logger *log.Logger) *Analyzer {
	return &Analyzer{classifier: classifier, reader: reader, logger: logger}
}

// Analyze produces a report for the given image bytes. Remote-tier
// failures never surface; undecodable bytes and classifier failures do.
func (a *Analyzer) Analyze(ctx context.Context, imageBytes []byte) (*CanonicalReport, error) {
	if err := validateImage(imageBytes); err != nil {
		return nil, err
	}

	start := time.Now()
	outcome, err := a.runTiers(ctx, imageBytes)
	if err != nil {
		return nil, err
	}
	return normalizeOutcome(outcome, time.Since(start), time.Now())
}

// runTiers applies the tier policy: attempt the remote reader when a
// credential is configured and stop there on success; otherwise run the
// classifier. At most one tier produces data per request.
func (a *Analyzer) runTiers(ctx context.Context, imageBytes []byte) (InferenceOutcome, error) {
	if a.reader != nil && a.reader.Configured() {
		a.logf("[analyze] attempting remote reading")
		if raw, ok := a.reader.Read(ctx, imageBytes); ok {
			a.logf("[analyze] remote reading succeeded")
			return InferenceOutcome{Tier: TierRemote, RemoteReport: raw}, nil
		}
		a.logf("[analyze] remote reader unavailable, falling back to classifier")
	} else {
		a.logf("[analyze] no remote credential, using classifier")
	}

	ranked, err := a.classifier.Classify(ctx, imageBytes)
	if err != nil {
		return InferenceOutcome{}, err
	}
	a.logf("[analyze] classifier top1: %s (%.1f%%)",
		ranked[0].Record.LocalName, ranked[0].Probability*100)
	return InferenceOutcome{Tier: TierClassifier, Ranked: ranked}, nil
}

func (a *Analyzer) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
