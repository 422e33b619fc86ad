package quality

import "strings"

const (
	PenetrationOptimal = "optimal"
	PenetrationOver    = "over_penetrated"
	PenetrationUnder   = "under_penetrated"
)

const (
	issueOverPenetration  = "Over-penetration may obscure mediastinal abnormalities"
	issueUnderPenetration = "Under-penetration may obscure lung parenchymal details"
)

func evaluatePenetration(answers map[string]string) Result {
	mediastinum := answers["mediastinum"]
	lungs := answers["lung_density"]

	q := PenetrationOptimal
	switch {
	case strings.Contains(mediastinum, "over-penetrated") || strings.Contains(lungs, "Black"):
		q = PenetrationOver
	case strings.Contains(mediastinum, "under-penetrated") || strings.Contains(lungs, "White"):
		q = PenetrationUnder
	}
	return Result{
		Quality:    q,
		Score:      scorePenetration(q),
		Diagnostic: true,
		Issues:     penetrationIssues(q),
	}
}

func penetrationIssues(q string) []string {
	switch q {
	case PenetrationOver:
		return []string{issueOverPenetration}
	case PenetrationUnder:
		return []string{issueUnderPenetration}
	}
	return nil
}
