package types

// Stage is a step in the interview pipeline. Any string is accepted; the
// recognized values only drive ordering and colors.
type Stage string

// Recognized stages.
const (
	StageApplied        Stage = "Applied"
	StageReferred       Stage = "Referred"
	StageOA             Stage = "OA"
	StageScreeningRound Stage = "Screening-Round"
	StageFirstRound     Stage = "First-Round"
	StageSecondRound    Stage = "Second-Round"
	StageThirdRound     Stage = "Third-Round"
	StageFourthRound    Stage = "Fourth-Round"
	StageHiringManager  Stage = "Hiring Manager"
	StageFifthRound     Stage = "Fifth-Round"
	StageDiscussion     Stage = "Discussion"
	StageQA             Stage = "QA"
)

// StageOrder is the display order of the pipeline. QA is recognized but unordered.
var StageOrder = []Stage{
	StageApplied,
	StageReferred,
	StageOA,
	StageScreeningRound,
	StageFirstRound,
	StageSecondRound,
	StageThirdRound,
	StageFourthRound,
	StageHiringManager,
	StageFifthRound,
	StageDiscussion,
}

var stageColors = map[Stage]string{
	StageApplied:        "gray",
	StageReferred:       "blue",
	StageOA:             "blue",
	StageScreeningRound: "blue",
	StageFirstRound:     "yellow",
	StageSecondRound:    "yellow",
	StageThirdRound:     "yellow",
	StageFourthRound:    "yellow",
	StageHiringManager:  "purple",
	StageFifthRound:     "purple",
	StageDiscussion:     "green",
}

// Rank returns the position of the stage in StageOrder.
// ok is false for stages outside the order; callers append those last.
func (s Stage) Rank() (int, bool) {
	for i, known := range StageOrder {
		if known == s {
			return i, true
		}
	}
	return len(StageOrder), false
}

// Color returns the palette name for the stage, "gray" when unstyled.
func (s Stage) Color() string {
	if c, ok := stageColors[s]; ok {
		return c
	}
	return "gray"
}

// Verdict is the terminal outcome of an application. Empty means pending.
type Verdict string

// Recognized verdicts.
const (
	VerdictOffered       Verdict = "Offered"
	VerdictRejected      Verdict = "Rejected"
	VerdictDeclinedOffer Verdict = "Declined Offer"
	VerdictPending       Verdict = "Pending"
)

// VerdictOrder is the order verdict groups are shown in.
var VerdictOrder = []Verdict{VerdictOffered, VerdictDeclinedOffer, VerdictPending, VerdictRejected}

var verdictColors = map[Verdict]string{
	VerdictRejected:      "red",
	VerdictDeclinedOffer: "gray",
	"Accept Offer":       "green",
	VerdictOffered:       "green",
	VerdictPending:       "blue",
}

// Display returns the verdict with the empty value shown as Pending.
func (v Verdict) Display() Verdict {
	if v == "" {
		return VerdictPending
	}
	return v
}

// Color returns the palette name for the verdict, "gray" when unstyled.
func (v Verdict) Color() string {
	if c, ok := verdictColors[v]; ok {
		return c
	}
	return "gray"
}

// RoundType describes the nature of the latest round. Open like Stage.
type RoundType string

// Recognized round types.
const (
	RoundDSA           RoundType = "DSA"
	RoundHLD           RoundType = "HLD"
	RoundLLD           RoundType = "LLD"
	RoundHR            RoundType = "HR"
	RoundAPICoding     RoundType = "API Coding"
	RoundHiringManager RoundType = "Hiring Manager"
	RoundOA            RoundType = "OA"
	RoundDiscussion    RoundType = "Discussion"
)
