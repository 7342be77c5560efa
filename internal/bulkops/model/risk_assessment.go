package model

// Severity of a single risk finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// RiskLevel is the overall rating of a batch. Ordered low < medium < high < critical.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the position of the level in the ordering.
func (l RiskLevel) Rank() int {
	return riskOrder[l]
}

// Level maps a finding severity onto the batch risk scale.
func (s Severity) Level() RiskLevel {
	switch s {
	case SeverityCritical:
		return RiskCritical
	case SeverityWarning:
		return RiskHigh
	case SeverityInfo:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Risk finding kinds
const (
	FindingHighVolume          = "HIGH_VOLUME"
	FindingPrivilegeEscalation = "PRIVILEGE_ESCALATION"
	FindingConcurrentMutation  = "CONCURRENT_MUTATION"
	FindingSelfTargeting       = "SELF_TARGETING"
	FindingRoleDowngrade       = "ROLE_DOWNGRADE"
	FindingDangerousPermission = "DANGEROUS_PERMISSION"
	FindingAccessLoss          = "ACCESS_LOSS"
)

type RiskFinding struct {
	Kind        string   `json:"kind" bson:"kind"`
	Severity    Severity `json:"severity" bson:"severity"`
	Description string   `json:"description" bson:"description"`
	Mitigation  string   `json:"mitigation" bson:"mitigation"`
}

// RiskAssessment is always recomputed from current state and never stored on its own.
type RiskAssessment struct {
	AffectedCount            int           `json:"affected_count"`
	RiskLevel                RiskLevel     `json:"risk_level"`
	Risks                    []RiskFinding `json:"risks"`
	EstimatedDurationSeconds int           `json:"estimated_duration_seconds"`
	EstimatedCost            float64       `json:"estimated_cost"`
}

// LevelOf derives the risk level from findings: the highest severity wins,
// no findings means low.
func LevelOf(findings []RiskFinding) RiskLevel {
	level := RiskLow
	for _, f := range findings {
		if l := f.Severity.Level(); l.Rank() > level.Rank() {
			level = l
		}
	}
	return level
}
