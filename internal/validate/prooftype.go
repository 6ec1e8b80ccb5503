package validate

import "strings"

const (
	ProofTypeCertificate  = "certificate"
	ProofTypeJob          = "job"
	ProofTypeSkill        = "skill"
	ProofTypeMilestone    = "milestone"
	ProofTypeContribution = "contribution"
)

// ProofTypes lists the accepted proof types: the portfolio categories first, then
// the on-chain categories offered by the CLI.
var ProofTypes = []string{
	ProofTypeCertificate,
	ProofTypeJob,
	ProofTypeSkill,
	ProofTypeMilestone,
	ProofTypeContribution,
	"Software Development",
	"Design",
	"Writing",
	"Research",
	"Marketing",
	"Other",
}

var extractionCategories = map[string]string{
	"certificates":            ProofTypeCertificate,
	"job_history":             ProofTypeJob,
	"skills":                  ProofTypeSkill,
	"milestones":              ProofTypeMilestone,
	"community_contributions": ProofTypeContribution,
}

func ProofType(t string) error {
	if t == "" {
		return fail("proofType", "Proof type is required")
	}
	for _, known := range ProofTypes {
		if t == known {
			return nil
		}
	}
	return fail("proofType", "Unknown proof type %q", t)
}

// ProofTypeForCategory maps a document-extraction category to a proof type.
func ProofTypeForCategory(category string) (string, bool) {
	t, ok := extractionCategories[strings.ToLower(strings.TrimSpace(category))]
	return t, ok
}
