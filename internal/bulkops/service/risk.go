package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"bulkops/internal/bulkops/config"
	"bulkops/internal/bulkops/model"
)

// Analyzer scores a proposed batch against the current state of its targets.
// It performs no I/O; callers fetch targets and in-flight operations first.
type Analyzer struct {
	cfg             config.EngineConfig
	privilegedRoles map[string]bool
	privilegedPerms map[string]bool
}

func NewAnalyzer(cfg config.EngineConfig) *Analyzer {
	a := &Analyzer{
		cfg:             cfg,
		privilegedRoles: make(map[string]bool, len(cfg.PrivilegedRoles)),
		privilegedPerms: make(map[string]bool, len(cfg.PrivilegedPermissions)),
	}
	for _, r := range cfg.PrivilegedRoles {
		a.privilegedRoles[strings.ToUpper(r)] = true
	}
	for _, p := range cfg.PrivilegedPermissions {
		a.privilegedPerms[strings.ToUpper(p)] = true
	}
	return a
}

// Assess evaluates every rule and accumulates findings. inFlight maps a
// target id to the unresolved operation already touching it.
func (a *Analyzer) Assess(req *model.BatchOperationRequest, targets []*model.TargetRecord, inFlight map[string]string) model.RiskAssessment {
	affected := len(targets)
	findings := make([]model.RiskFinding, 0)
	value := strings.ToUpper(strings.TrimSpace(req.TargetValue.Value))

	if affected > a.cfg.HighVolumeThreshold {
		findings = append(findings, model.RiskFinding{
			Kind:        model.FindingHighVolume,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d targets exceed the high volume threshold of %d", affected, a.cfg.HighVolumeThreshold),
			Mitigation:  "Split the batch and roll it out in stages",
		})
	}

	if req.OperationType == model.OpRoleChange && a.privilegedRoles[value] {
		findings = append(findings, model.RiskFinding{
			Kind:        model.FindingPrivilegeEscalation,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("Grants privileged role %s to %d targets", value, affected),
			Mitigation:  "Confirm every target requires elevated access",
		})
	}

	if len(inFlight) > 0 {
		ids := make([]string, 0, len(inFlight))
		for id := range inFlight {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		findings = append(findings, model.RiskFinding{
			Kind:        model.FindingConcurrentMutation,
			Severity:    model.SeverityCritical,
			Description: fmt.Sprintf("%d targets are part of another operation that can still be undone: %s", len(ids), summarize(ids)),
			Mitigation:  "Wait for the other operation's undo window to close or undo it first",
		})
	}

	if (req.OperationType == model.OpDeactivate || req.OperationType == model.OpPermissionRevoke) && contains(req.TargetIDs, req.ActorID) {
		findings = append(findings, model.RiskFinding{
			Kind:        model.FindingSelfTargeting,
			Severity:    model.SeverityWarning,
			Description: "The actor is among the targets and may lock themselves out",
			Mitigation:  "Remove the actor from the selection",
		})
	}

	if req.OperationType == model.OpRoleChange {
		if demoted := countDemotions(targets, value); demoted > 0 {
			findings = append(findings, model.RiskFinding{
				Kind:        model.FindingRoleDowngrade,
				Severity:    model.SeverityWarning,
				Description: fmt.Sprintf("%d targets lose privileges by moving to %s", demoted, value),
				Mitigation:  "Check that demoted users do not own critical workflows",
			})
		}
	}

	if req.OperationType == model.OpPermissionGrant {
		var dangerous []string
		for _, p := range req.TargetValue.Strings() {
			p = strings.ToUpper(strings.TrimSpace(p))
			if a.privilegedPerms[p] {
				dangerous = append(dangerous, p)
			}
		}
		if len(dangerous) > 0 {
			findings = append(findings, model.RiskFinding{
				Kind:        model.FindingDangerousPermission,
				Severity:    model.SeverityCritical,
				Description: "Grants dangerous permissions: " + strings.Join(dangerous, ", "),
				Mitigation:  "Grant these permissions individually after review",
			})
		}
	}

	if req.OperationType == model.OpStatusUpdate && (value == model.StatusSuspended || value == model.StatusInactive) {
		findings = append(findings, model.RiskFinding{
			Kind:        model.FindingAccessLoss,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d targets lose access when set to %s", affected, value),
			Mitigation:  "Notify affected users before applying",
		})
	}

	return model.RiskAssessment{
		AffectedCount:            affected,
		RiskLevel:                model.LevelOf(findings),
		Risks:                    findings,
		EstimatedDurationSeconds: a.estimateDuration(affected),
		EstimatedCost:            a.estimateCost(affected),
	}
}

// estimateDuration is a linear heuristic, not a prediction.
func (a *Analyzer) estimateDuration(affected int) int {
	if affected == 0 {
		return 0
	}
	tp := a.cfg.ThroughputPerSecond
	if tp < 1 {
		tp = 1
	}
	return (affected + tp - 1) / tp
}

func (a *Analyzer) estimateCost(affected int) float64 {
	return math.Round(float64(affected)*a.cfg.PerTargetCost*1e4) / 1e4
}

func countDemotions(targets []*model.TargetRecord, newRole string) int {
	newRank, ok := model.RoleRank[newRole]
	if !ok {
		return 0
	}
	n := 0
	for _, t := range targets {
		if rank, known := model.RoleRank[t.Role]; known && rank < newRank {
			n++
		}
	}
	return n
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// summarize lists up to five ids.
func summarize(ids []string) string {
	const limit = 5
	if len(ids) <= limit {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(ids[:limit], ", "), len(ids)-limit)
}
