package xray

// ConditionRecord is one catalogue entry: a short English code, the
// localized display name and a canonical radiological description.
type ConditionRecord struct {
	Code        string
	LocalName   string
	Description string
}

// DisplayName renders the record the way reports list it, e.g. 肺不张（Atelectasis）.
func (r ConditionRecord) DisplayName() string {
	return r.LocalName + "（" + r.Code + "）"
}

// RankedPrediction pairs a catalogue record with its softmax probability.
type RankedPrediction struct {
	Record      ConditionRecord
	Probability float64
}

// Tier identifies which inference strategy produced a result.
type Tier int

const (
	// TierRemote is the multimodal chat-completion reading.
	TierRemote Tier = iota
	// TierClassifier is the local zero-shot embedding classification.
	TierClassifier
)

// InferenceOutcome is the tagged result of running the tier policy: exactly
// one of RemoteReport or Ranked is populated, selected by Tier.
type InferenceOutcome struct {
	Tier         Tier
	RemoteReport string
	Ranked       []RankedPrediction
}

// RawDatum is one screening entry exposed to report consumers.
type RawDatum struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// CanonicalReport is the output contract of Analyze. It is constructed once
// per request and never mutated afterwards.
type CanonicalReport struct {
	ID             string     `json:"id"`
	Timestamp      string     `json:"timestamp"`
	ScanType       string     `json:"scan_type"`
	ModelInfo      string     `json:"model_info"`
	Diagnosis      string     `json:"diagnosis"`
	Confidence     float64    `json:"confidence"`
	Findings       string     `json:"findings"`
	Reasoning      string     `json:"reasoning"`
	Recommendation string     `json:"recommendation"`
	RawData        []RawDatum `json:"raw_data"`
	ModelUsed      string     `json:"model_used"`
	FullReport     string     `json:"full_report"`
}
