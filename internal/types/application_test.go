package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplication_JSONFieldNames(t *testing.T) {
	app := Application{
		ID:           "tek-1",
		Company:      "Tekion",
		Emoji:        "🚗",
		CurrentStage: StageThirdRound,
		RoundType:    RoundHiringManager,
		Position:     "SDE II",
		Team:         "Platform",
		AppliedDate:  "2025-01-27",
		OfferedDate:  "2025-03-26",
		FinalVerdict: VerdictDeclinedOffer,
		Notes:        "line one\nline two",
	}

	jsonBytes, err := json.Marshal(app)
	require.NoError(t, err)
	s := string(jsonBytes)
	assert.Contains(t, s, `"currentStage":"Third-Round"`)
	assert.Contains(t, s, `"roundType":"Hiring Manager"`)
	assert.Contains(t, s, `"appliedDate":"2025-01-27"`)
	assert.Contains(t, s, `"finalVerdict":"Declined Offer"`)
	assert.NotContains(t, s, "dueDate")
}

func TestApplication_OmitsEmptyOptionalFields(t *testing.T) {
	jsonBytes, err := json.Marshal(Application{ID: "a", Company: "Acme", CurrentStage: StageApplied})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","company":"Acme","currentStage":"Applied"}`, string(jsonBytes))
}

func TestApplication_AcceptsUnknownStageAndVerdict(t *testing.T) {
	var app Application
	err := json.Unmarshal([]byte(`{"id":"x","company":"X","currentStage":"Take-Home","finalVerdict":"Ghosted"}`), &app)
	require.NoError(t, err)
	assert.Equal(t, Stage("Take-Home"), app.CurrentStage)
	assert.Equal(t, Verdict("Ghosted"), app.FinalVerdict)
}

func TestApplication_Title(t *testing.T) {
	assert.Equal(t, "Google", Application{Company: "Google"}.Title())
	assert.Equal(t, "Google – SDE L4", Application{Company: "Google", Position: "SDE L4"}.Title())
}

func TestNewApplicationID(t *testing.T) {
	id := NewApplicationID("Goldman  Sachs")
	assert.True(t, strings.HasPrefix(id, "goldman-sachs-"), id)
	assert.Len(t, strings.TrimPrefix(id, "goldman-sachs-"), 12)

	other := NewApplicationID("Goldman  Sachs")
	assert.NotEqual(t, id, other)

	assert.Len(t, NewApplicationID("   "), 12)
}

func TestCloneApplications(t *testing.T) {
	original := []Application{{ID: "a"}, {ID: "b"}}
	clone := CloneApplications(original)
	clone[0].ID = "changed"
	assert.Equal(t, "a", original[0].ID)
	assert.NotNil(t, CloneApplications(nil))
}

func TestStage_Rank(t *testing.T) {
	tests := []struct {
		stage    Stage
		wantRank int
		wantOK   bool
	}{
		{StageApplied, 0, true},
		{StageReferred, 1, true},
		{StageDiscussion, len(StageOrder) - 1, true},
		{StageQA, len(StageOrder), false},
		{Stage("Bar Raiser"), len(StageOrder), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			rank, ok := tt.stage.Rank()
			assert.Equal(t, tt.wantRank, rank)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestStage_Color(t *testing.T) {
	assert.Equal(t, "yellow", StageFirstRound.Color())
	assert.Equal(t, "purple", StageHiringManager.Color())
	assert.Equal(t, "gray", Stage("Unknown").Color())
}

func TestVerdict_DisplayAndColor(t *testing.T) {
	assert.Equal(t, VerdictPending, Verdict("").Display())
	assert.Equal(t, VerdictOffered, VerdictOffered.Display())
	assert.Equal(t, "red", VerdictRejected.Color())
	assert.Equal(t, "green", Verdict("Accept Offer").Color())
	assert.Equal(t, "gray", Verdict("").Color())
	assert.Equal(t, "gray", Verdict("Ghosted").Color())
}

func TestTokenRecord_Expired(t *testing.T) {
	rec := TokenRecord{AccessToken: "t", Expiry: 1000}
	assert.False(t, rec.Expired(999))
	assert.True(t, rec.Expired(1000))
	assert.True(t, rec.Expired(1001))
}
