package domain

// DelayClassification is a classifier's verdict on a single free-text
// delay reason. Ephemeral: produced and consumed within one
// orchestration step, never persisted.
type DelayClassification struct {
	IsWeatherRelated bool
	Reasoning        string
	Confidence       float64 // self-reported certainty in [0,1]
}
