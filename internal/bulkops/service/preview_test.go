package service

import (
	"context"
	"fmt"
	"testing"

	"bulkops/internal/bulkops/config"
	"bulkops/internal/bulkops/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	ctx := context.Background()

	t.Run("admin escalation scenario", func(t *testing.T) {
		f := newFixture(t,
			user("u1", model.RoleTeamMember, model.StatusActive),
			user("u2", model.RoleAdmin, model.StatusActive),
			user("u3", model.RoleStaff, model.StatusActive),
		)

		p, err := f.svc.Preview(ctx, request("req-1", model.OpRoleChange, model.StringValue("ADMIN"), "u1", "u2", "u3"))
		require.NoError(t, err)

		assert.Equal(t, model.PreviewStatus, p.Status)
		assert.Equal(t, "req-1", p.RequestID)
		require.Len(t, p.PerTargetOutcome, 3)
		assert.True(t, p.PerTargetOutcome[0].WillSucceed)
		assert.False(t, p.PerTargetOutcome[1].WillSucceed)
		assert.Equal(t, "no-op: already ADMIN", p.PerTargetOutcome[1].Message)
		assert.True(t, p.PerTargetOutcome[2].WillSucceed)

		assert.Equal(t, model.RiskCritical, p.RiskAssessment.RiskLevel)
		assert.Contains(t, kinds(p.RiskAssessment.Risks), model.FindingPrivilegeEscalation)
		assert.Equal(t, 3, p.RiskAssessment.AffectedCount)
		assert.False(t, p.CanProceed)
		assert.True(t, p.RollbackAvailable)
	})

	t.Run("sixty targets raise exactly one high volume warning", func(t *testing.T) {
		var records []*model.TargetRecord
		var ids []string
		for i := 0; i < 60; i++ {
			id := fmt.Sprintf("u%02d", i)
			records = append(records, user(id, model.RoleStaff, model.StatusActive))
			ids = append(ids, id)
		}
		f := newFixture(t, records...)

		p, err := f.svc.Preview(ctx, request("req-60", model.OpTeamTransfer, model.StringValue("team-b"), ids...))
		require.NoError(t, err)

		require.Len(t, p.RiskAssessment.Risks, 1)
		assert.Equal(t, model.FindingHighVolume, p.RiskAssessment.Risks[0].Kind)
		assert.Equal(t, model.SeverityWarning, p.RiskAssessment.Risks[0].Severity)
		assert.GreaterOrEqual(t, p.RiskAssessment.RiskLevel.Rank(), model.RiskHigh.Rank())
		assert.Equal(t, 3, p.RiskAssessment.EstimatedDurationSeconds)
		assert.InDelta(t, 3.0, p.RiskAssessment.EstimatedCost, 1e-9)
		assert.True(t, p.CanProceed)
	})

	t.Run("idempotent when state is unchanged", func(t *testing.T) {
		f := newFixture(t,
			user("u1", model.RoleTeamMember, model.StatusActive),
			user("u2", model.RoleTeamMember, model.StatusInactive),
		)
		req := request("req-2", model.OpRoleChange, model.StringValue("team_lead"), "u1", "u2", "u1")

		first, err := f.svc.Preview(ctx, req)
		require.NoError(t, err)
		second, err := f.svc.Preview(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		require.Len(t, first.PerTargetOutcome, 2, "duplicate ids are collapsed")
	})

	t.Run("has no side effects", func(t *testing.T) {
		f := newFixture(t, user("u1", model.RoleTeamMember, model.StatusActive))
		before := f.repo.Record("u1")

		_, err := f.svc.Preview(ctx, request("req-3", model.OpDeactivate, model.TargetValue{}, "u1"))
		require.NoError(t, err)

		assert.Equal(t, before, f.repo.Record("u1"))
		op, err := f.repo.Get(ctx, "req-3")
		require.NoError(t, err)
		assert.Nil(t, op)
		f.notifier.AssertNumberOfCalls(t, "Notify", 0)
	})

	t.Run("request without id stays idempotent", func(t *testing.T) {
		f := newFixture(t, user("u1", model.RoleTeamMember, model.StatusActive))
		req := request("", model.OpStatusUpdate, model.StringValue("SUSPENDED"), "u1")

		first, err := f.svc.Preview(ctx, req)
		require.NoError(t, err)
		second, err := f.svc.Preview(ctx, req)
		require.NoError(t, err)

		assert.Empty(t, first.RequestID)
		assert.Equal(t, first, second)
		assert.Equal(t, []string{model.FindingAccessLoss}, kinds(first.RiskAssessment.Risks))
	})

	t.Run("flags targets of an operation that can still be undone", func(t *testing.T) {
		f := newFixture(t,
			user("u1", model.RoleTeamMember, model.StatusActive),
			user("u2", model.RoleTeamMember, model.StatusActive),
		)
		_, err := f.svc.Execute(ctx, request("op-1", model.OpTeamTransfer, model.StringValue("team-b"), "u1"))
		require.NoError(t, err)

		req := request("req-4", model.OpTeamTransfer, model.StringValue("team-c"), "u1", "u2")
		p, err := f.svc.Preview(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []string{model.FindingConcurrentMutation}, kinds(p.RiskAssessment.Risks))
		assert.Contains(t, p.RiskAssessment.Risks[0].Description, "u1")
		assert.NotContains(t, p.RiskAssessment.Risks[0].Description, "u2")

		_, err = f.svc.Undo(ctx, tenant, "op-1", "a1")
		require.NoError(t, err)

		p, err = f.svc.Preview(ctx, req)
		require.NoError(t, err)
		assert.Empty(t, p.RiskAssessment.Risks)
		assert.Equal(t, model.RiskLow, p.RiskAssessment.RiskLevel)
	})

	t.Run("in-flight ends with the undo window", func(t *testing.T) {
		f := newFixture(t, user("u1", model.RoleTeamMember, model.StatusActive))
		_, err := f.svc.Execute(ctx, request("op-1", model.OpTeamTransfer, model.StringValue("team-b"), "u1"))
		require.NoError(t, err)

		f.clock.Advance(f.svc.Config.UndoWindow + 1)
		p, err := f.svc.Preview(ctx, request("req-5", model.OpTeamTransfer, model.StringValue("team-c"), "u1"))
		require.NoError(t, err)
		assert.Empty(t, p.RiskAssessment.Risks)
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		f := newFixture(t,
			user("u1", model.RoleTeamMember, model.StatusActive),
			&model.TargetRecord{ID: "x1", TenantID: "t2", Role: model.RoleStaff, Status: model.StatusActive, Version: 1},
		)

		tests := []struct {
			name    string
			req     model.BatchOperationRequest
			wantErr error
		}{
			{"empty targets", request("r", model.OpRoleChange, model.StringValue("ADMIN")), ErrValidation},
			{"unknown operation", request("r", "Promote", model.StringValue("ADMIN"), "u1"), ErrValidation},
			{"unknown role", request("r", model.OpRoleChange, model.StringValue("OWNER"), "u1"), ErrValidation},
			{"missing permissions", request("r", model.OpPermissionGrant, model.TargetValue{}, "u1"), ErrValidation},
			{"cross tenant id", request("r", model.OpRoleChange, model.StringValue("STAFF"), "u1", "x1"), ErrValidation},
			{"unknown id", request("r", model.OpRoleChange, model.StringValue("STAFF"), "u1", "ghost"), ErrNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.svc.Preview(ctx, tt.req)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}

func TestPreviewExecuteParity(t *testing.T) {
	ctx := context.Background()

	seed := func() []*model.TargetRecord {
		return []*model.TargetRecord{
			user("u1", model.RoleTeamMember, model.StatusActive, "READ_REPORTS"),
			user("u2", model.RoleAdmin, model.StatusActive),
			user("u3", model.RoleStaff, model.StatusInactive, "READ_REPORTS"),
			user("u4", model.RoleClient, model.StatusSuspended, "EXPORT_DATA"),
		}
	}
	all := []string{"u1", "u2", "u3", "u4"}

	tests := []struct {
		name string
		req  model.BatchOperationRequest
	}{
		{"role change", request("p1", model.OpRoleChange, model.StringValue("ADMIN"), all...)},
		{"status update", request("p2", model.OpStatusUpdate, model.StringValue("ACTIVE"), all...)},
		{"team transfer", request("p3", model.OpTeamTransfer, model.StringValue("team-a"), all...)},
		{"permission grant", request("p4", model.OpPermissionGrant, model.ListValue("READ_REPORTS"), all...)},
		{"permission revoke", request("p5", model.OpPermissionRevoke, model.ListValue("EXPORT_DATA", "READ_REPORTS"), all...)},
		{"deactivate", request("p6", model.OpDeactivate, model.TargetValue{}, all...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, seed()...)

			preview, err := f.svc.Preview(ctx, tt.req)
			require.NoError(t, err)
			record, err := f.svc.Execute(ctx, tt.req)
			require.NoError(t, err)

			assert.ElementsMatch(t, preview.SucceedingTargets(), record.MutatedTargets)
			require.Len(t, record.PerTargetResult, len(preview.PerTargetOutcome))
			for i, outcome := range preview.PerTargetOutcome {
				res := record.PerTargetResult[i]
				assert.Equal(t, outcome.TargetID, res.TargetID)
				assert.Equal(t, outcome.Message, res.Message)
			}
		})
	}

	t.Run("custom high volume threshold", func(t *testing.T) {
		cfg := config.DefaultEngineConfig()
		cfg.HighVolumeThreshold = 2
		f := newFixtureWithConfig(t, cfg, seed()...)

		p, err := f.svc.Preview(ctx, request("p7", model.OpTeamTransfer, model.StringValue("team-z"), all...))
		require.NoError(t, err)
		assert.Equal(t, []string{model.FindingHighVolume}, kinds(p.RiskAssessment.Risks))
		assert.Len(t, p.SucceedingTargets(), 3)
	})
}
