package xray

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Section labels emitted by the remote reader prompt.
const (
	sectionFindings       = "影像所见"
	sectionDiagnosis      = "诊断结论"
	sectionReasoning      = "诊断依据"
	sectionRecommendation = "医学建议"
	sectionConfidence     = "综合置信度"
)

const (
	scanTypeLabel       = "综合智能分析"
	modelUsedRemote     = "AI 深度分析"
	modelUsedClassifier = "AI 快速分析（BiomedCLIP）"

	placeholderDiagnosis      = "请见详细报告"
	placeholderRecommendation = "请咨询专业医生"
	classifierRecommendation  = "本结果由AI辅助生成，仅供参考。建议将此报告交给专业医生做进一步判读。"
)

// defaultRemoteConfidence applies when the confidence section is missing
// or contains no integer.
const defaultRemoteConfidence = 0.5

var firstIntPattern = regexp.MustCompile(`\d+`)

// normalizeOutcome converts a tier outcome into the canonical report. The
// switch is exhaustive over the tier tag.
func normalizeOutcome(out InferenceOutcome, elapsed time.Duration, now time.Time) (*CanonicalReport, error) {
	switch out.Tier {
	case TierRemote:
		return buildRemoteReport(out.RemoteReport, elapsed, now), nil
	case TierClassifier:
		return buildClassifierReport(out.Ranked, elapsed, now), nil
	default:
		return nil, fmt.Errorf("unknown inference tier %d", out.Tier)
	}
}

// buildRemoteReport normalizes the free-form remote reading. Every field
// receives content: extraction misses fall back to fixed placeholders and
// the findings fall back to the full raw text.
func buildRemoteReport(raw string, elapsed time.Duration, now time.Time) *CanonicalReport {
	findings := raw
	if body, ok := ExtractSection(raw, sectionFindings); ok {
		findings = body
	}
	diagnosis := placeholderDiagnosis
	if body, ok := ExtractSection(raw, sectionDiagnosis); ok {
		diagnosis = body
	}
	reasoning := ""
	if body, ok := ExtractSection(raw, sectionReasoning); ok {
		reasoning = body
	}
	recommendation := placeholderRecommendation
	if body, ok := ExtractSection(raw, sectionRecommendation); ok {
		recommendation = body
	}

	confidence := defaultRemoteConfidence
	if body, ok := ExtractSection(raw, sectionConfidence); ok {
		// First integer wins, even when the section holds several
		// numbers (e.g. a range).
		if m := firstIntPattern.FindString(body); m != "" {
			if v, err := strconv.Atoi(m); err == nil {
				if v > 99 {
					v = 99
				}
				confidence = float64(v) / 100
			}
		}
	}

	return &CanonicalReport{
		ID:             newReportID(now),
		Timestamp:      now.Format(time.RFC3339),
		ScanType:       scanTypeLabel,
		ModelInfo:      fmt.Sprintf("AI 智能分析 · 耗时 %.0f 秒", elapsed.Seconds()),
		Diagnosis:      diagnosis,
		Confidence:     round4(confidence),
		Findings:       findings,
		Reasoning:      reasoning,
		Recommendation: recommendation,
		RawData:        []RawDatum{},
		ModelUsed:      modelUsedRemote,
		FullReport:     raw,
	}
}

// buildClassifierReport renders the templated report from the ranked list
// and fuses the dominance-based confidence.
func buildClassifierReport(ranked []RankedPrediction, elapsed time.Duration, now time.Time) *CanonicalReport {
	top := ranked
	if len(top) > 5 {
		top = top[:5]
	}

	lines := make([]string, 0, len(top))
	for _, p := range top {
		lines = append(lines, fmt.Sprintf("• %s（%s）— %.1f%%：%s",
			p.Record.LocalName, p.Record.Code, p.Probability*100, p.Record.Description))
	}
	findings := strings.Join(lines, "\n")

	primary := top[0]
	diagnosis := fmt.Sprintf("主要诊断：%s（%s）— 可能性 %.1f%%\n",
		primary.Record.LocalName, primary.Record.Code, primary.Probability*100)
	var differentials []string
	for _, p := range top[1:min(len(top), 4)] {
		differentials = append(differentials, fmt.Sprintf("%s（%.1f%%）", p.Record.LocalName, p.Probability*100))
	}
	if len(differentials) > 0 {
		diagnosis += "鉴别诊断：" + strings.Join(differentials, "、")
	}

	reasoning := fmt.Sprintf(
		"基于 BiomedCLIP 医学影像模型，对 %d 种常见病症进行综合评估。\n"+
			"排名第一：%s，相对可能性 %.1f%%。\n"+
			"注意：由于同时对比 %d 种病症，单项概率值偏低属正常现象，应关注相对排名。",
		len(catalogue), primary.Record.LocalName, primary.Probability*100, len(catalogue))

	rawData := make([]RawDatum, 0, 15)
	for _, p := range ranked[:min(len(ranked), 15)] {
		rawData = append(rawData, RawDatum{
			Name:        p.Record.DisplayName(),
			Probability: round4(p.Probability),
		})
	}

	return &CanonicalReport{
		ID:             newReportID(now),
		Timestamp:      now.Format(time.RFC3339),
		ScanType:       scanTypeLabel,
		ModelInfo:      fmt.Sprintf("AI 快速分析 · 耗时 %.1f 秒", elapsed.Seconds()),
		Diagnosis:      diagnosis,
		Confidence:     round4(fuseConfidence(ranked)),
		Findings:       findings,
		Reasoning:      reasoning,
		Recommendation: classifierRecommendation,
		RawData:        rawData,
		ModelUsed:      modelUsedClassifier,
		FullReport:     "",
	}
}

// fuseConfidence maps the ranked distribution to [0.55, 0.95]. Raw softmax
// probabilities over a large catalogue are relative, not absolute, so the
// fusion rewards how much the top candidate dominates its top-5
// neighborhood rather than its raw magnitude.
func fuseConfidence(ranked []RankedPrediction) float64 {
	if len(ranked) == 0 {
		return 0.55 + 0.5*0.40
	}
	top1 := ranked[0].Probability
	var top5Sum float64
	for _, p := range ranked[:min(len(ranked), 5)] {
		top5Sum += p.Probability
	}
	dominance := 0.5
	if top5Sum > 0 {
		dominance = top1 / top5Sum
	}
	return 0.55 + dominance*0.40
}

// newReportID yields a timestamped identifier with a random 3-digit suffix
// for uniqueness within the same second.
func newReportID(now time.Time) string {
	return fmt.Sprintf("XP-%s-%d", now.Format("20060102-150405"), 100+rand.Intn(900))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
