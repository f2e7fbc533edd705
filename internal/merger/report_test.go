package merger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvmerge/rvmerge/internal/validate"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "validating", StateValidating.String())
	assert.Equal(t, "extracting", StateExtracting.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
}

func TestReportWarnings(t *testing.T) {
	rep := &Report{Issues: []validate.Issue{
		{Source: "a.xlsx", Fatal: true, Message: "broken"},
		{Source: "b.xlsx", Message: "odd but fine"},
	}}

	warns := rep.Warnings()
	assert.Len(t, warns, 1)
	assert.Equal(t, "b.xlsx", warns[0].Source)
}

func TestReportSummary(t *testing.T) {
	rep := &Report{
		Success:   true,
		Documents: []string{"a.xlsx", "b.xlsx"},
		Skipped:   []string{"c.xlsx"},
		Duration:  1500 * time.Millisecond,
		Sheets: map[string]*SheetStats{
			"vInfo":      {Documents: 2, Rows: 10},
			"vPartition": {Documents: 2, Rows: 7, FilteredByLink: 3},
		},
		Semantic: &validate.SemanticResult{
			TotalAccepted: 10,
			TotalRejected: 1,
			Failed:        []validate.FailedRow{{Source: "a.xlsx", Reason: validate.ReasonMissingVMUUID}},
			PerReason:     map[validate.Reason]int{validate.ReasonMissingVMUUID: 1},
		},
		OutputFiles: []string{"merged.xlsx"},
	}

	s := rep.Summary()
	assert.Contains(t, s, "merge succeeded in 1.5s")
	assert.Contains(t, s, "documents merged: 2 (skipped: c.xlsx)")
	assert.Contains(t, s, "vInfo: 10 rows from 2 documents")
	assert.Contains(t, s, "3 filtered (no matching anchor row)")
	assert.Contains(t, s, "domain validation: 10 accepted, 1 rejected")
	assert.Contains(t, s, "wrote merged.xlsx")
}

func TestReportJSONCarriesDomainValidationCounters(t *testing.T) {
	rep := &Report{
		Semantic: &validate.SemanticResult{
			TotalAccepted: 7,
			TotalRejected: 2,
			PerReason: map[validate.Reason]int{
				validate.ReasonMissingVMUUID: 1,
				validate.ReasonDuplicate:     1,
			},
			Failed: []validate.FailedRow{
				{Source: "a.xlsx", Reason: validate.ReasonMissingVMUUID},
				{Source: "b.xlsx", Reason: validate.ReasonDuplicate},
			},
		},
	}

	raw, err := json.Marshal(rep)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	dv, ok := decoded["domain_validation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(7), dv["accepted"])
	assert.Equal(t, float64(2), dv["rejected"])
	assert.Equal(t, float64(1), dv["per_reason"].(map[string]any)["missing VM UUID"])
	// The rejected rows themselves stay out of the JSON summary.
	assert.NotContains(t, dv, "Failed")
}
