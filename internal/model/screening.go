package model

import "time"

// RiskLevel is the ordinal screening outcome
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMonitor RiskLevel = "monitor"
	RiskHigh    RiskLevel = "high"
	RiskRefer   RiskLevel = "refer"
)

// Valid reports whether r is one of the four known levels
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMonitor, RiskHigh, RiskRefer:
		return true
	}
	return false
}

// EvidenceType tags where an evidence item came from
type EvidenceType string

const (
	EvidenceText  EvidenceType = "text"
	EvidenceImage EvidenceType = "image"
)

// Developmental domains accepted on input. Empty means general.
const (
	DomainCommunication = "communication"
	DomainGrossMotor    = "gross_motor"
	DomainFineMotor     = "fine_motor"
	DomainCognitive     = "cognitive"
	DomainSocial        = "social"
)

// EvidenceItem is a rationale snippet shown to clinicians
type EvidenceItem struct {
	Type      EvidenceType `json:"type" bson:"type" validate:"required,oneof=text image"`
	Content   string       `json:"content" bson:"content" validate:"required"`
	Influence float64      `json:"influence" bson:"influence" validate:"gte=0,lte=1"`
}

// AnalysisMeta echoes the inputs the report was computed from
type AnalysisMeta struct {
	AgeMonths           int    `json:"ageMonths" bson:"ageMonths"`
	Domain              string `json:"domain" bson:"domain"`
	ObservationsSnippet string `json:"observationsSnippet" bson:"observationsSnippet"`
	ImageProvided       bool   `json:"imageProvided" bson:"imageProvided"`
}

// ScreeningReport is the structured output of a screening.
// Validation tags apply to reports coming back from the LLM gateway.
type ScreeningReport struct {
	RiskLevel       RiskLevel      `json:"riskLevel" bson:"riskLevel" validate:"required,oneof=low monitor high refer"`
	Confidence      float64        `json:"confidence" bson:"confidence" validate:"gte=0,lte=1"`
	Summary         string         `json:"summary" bson:"summary"`
	KeyFindings     []string       `json:"keyFindings" bson:"keyFindings" validate:"required,min=1,dive,required"`
	Recommendations []string       `json:"recommendations" bson:"recommendations" validate:"required,min=1,dive,required"`
	Evidence        []EvidenceItem `json:"evidence" bson:"evidence" validate:"dive"`
	AnalysisMeta    AnalysisMeta   `json:"analysisMeta" bson:"analysisMeta"`
}

// ReportSource says which path produced the final report
type ReportSource string

const (
	SourceAI       ReportSource = "ai"
	SourceFallback ReportSource = "fallback"
)

// Fallback reasons recorded when the deterministic report is used
const (
	FallbackDisabled      = "disabled"
	FallbackThrottled     = "throttled"
	FallbackGatewayError  = "gateway_error"
	FallbackInvalidOutput = "invalid_output"
)

// Screening is the persisted record of one screening request
type Screening struct {
	ID             string          `json:"screeningId" bson:"_id"`
	ClinicianID    string          `json:"clinicianId" bson:"clinicianId"`
	ChildAgeMonths int             `json:"childAge" bson:"childAgeMonths"`
	Domain         string          `json:"domain" bson:"domain"`
	InputHash      string          `json:"inputHash" bson:"inputHash"`
	ImageDigest    string          `json:"imageDigest,omitempty" bson:"imageDigest,omitempty"`
	Source         ReportSource    `json:"source" bson:"source"`
	Model          string          `json:"model,omitempty" bson:"model,omitempty"`
	FallbackReason string          `json:"fallbackReason,omitempty" bson:"fallbackReason,omitempty"`
	Report         ScreeningReport `json:"report" bson:"report"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
}

// ScreeningEvent is a usage record written alongside each screening
type ScreeningEvent struct {
	ScreeningID    string       `json:"screeningId" bson:"screeningId"`
	ClinicianID    string       `json:"clinicianId" bson:"clinicianId"`
	Source         ReportSource `json:"source" bson:"source"`
	RiskLevel      RiskLevel    `json:"riskLevel" bson:"riskLevel"`
	FallbackReason string       `json:"fallbackReason,omitempty" bson:"fallbackReason,omitempty"`
	LatencyMS      int64        `json:"latencyMs" bson:"latencyMs"`
	CreatedAt      time.Time    `json:"createdAt" bson:"createdAt"`
}
