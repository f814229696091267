package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docflow/internal/model"
)

func TestWriteReport(t *testing.T) {
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	actor, email, doc := "u-1", "ann@example.com", "d-1"

	r := &model.Report{
		Summary: model.StatusSummary{
			Total: 2,
			Breakdown: []model.StatusCount{
				{Label: "Approved", Status: model.StatusApproved, Value: 1, Pct: 50},
				{Label: "Rejected", Status: model.StatusRejected},
				{Label: "Pending", Status: model.StatusPending, Value: 1, Pct: 50},
				{Label: "Draft", Status: model.StatusDraft},
			},
			GeneratedAt: at,
		},
		Users: []model.UserBreakdown{{
			UserID: actor, Name: "Ann Lee", Role: model.RoleClient, Total: 2,
			Counts: map[model.DocumentStatus]int{model.StatusApproved: 1, model.StatusPending: 1},
		}},
		RecentActivity: []model.AuditEntry{
			{Seq: 2, ActorID: &actor, ActorEmail: &email, Action: model.ActionApprove, TargetDocumentID: &doc, Detail: "approve", CreatedAt: at},
			{Seq: 1, ActorID: &actor, Action: model.ActionLogin, CreatedAt: at},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, r, time.FixedZone("WIB", 7*3600)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetUsers, SheetActivity}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, []string{"Status", "Documents", "Percent"}, summary[0])
	assert.Equal(t, []string{"Approved", "1", "50"}, summary[1])
	assert.Equal(t, "Total", summary[5][0])
	assert.Equal(t, "2026-05-04 17:00:00", summary[6][1])

	users, err := f.GetRows(SheetUsers)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{"User", "Name", "Role", "Total", "approved", "rejected", "pending", "draft"}, users[0])
	assert.Equal(t, []string{"u-1", "Ann Lee", "client", "2", "1", "0", "1", "0"}, users[1])

	activity, err := f.GetRows(SheetActivity)
	require.NoError(t, err)
	require.Len(t, activity, 3)
	assert.Equal(t, "APPROVE", activity[1][1])
	assert.Equal(t, "ann@example.com", activity[1][2])
	assert.Equal(t, "d-1", activity[1][3])
	assert.Equal(t, "u-1", activity[2][2])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "docflow-report-20260504-100000.xlsx", Filename(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)))
}
