package rename

import (
	"strconv"

	"filekebab/internal/normalizer"
	"filekebab/internal/policy"
	"filekebab/internal/vault"
)

// Candidate is the normalized name an entry should carry.
type Candidate struct {
	TargetBaseName string
	Extension      string
}

// Name returns the candidate name for an attempt. Attempt 0 is the canonical
// name; later attempts append "-<attempt>" to the base name.
func (c Candidate) Name(attempt int) string {
	if attempt <= 0 {
		return c.TargetBaseName + c.Extension
	}
	return c.TargetBaseName + "-" + strconv.Itoa(attempt) + c.Extension
}

// Plan is the pure part of a reconciliation: whether to rename and to what.
type Plan struct {
	Entry     vault.Entry
	Candidate Candidate
	Target    string // Canonical vault-relative path
	Skip      bool
	Reason    Reason
	Exclusion policy.Reason
}

// PlanRename decides whether entry should be renamed given a raw candidate
// base name. It never touches the host.
func PlanRename(entry vault.Entry, candidateBaseName string, cfg policy.Config) Plan {
	plan := Plan{Entry: entry}

	if excluded, why := policy.Evaluate(entry, cfg); excluded {
		plan.Skip = true
		plan.Reason = ReasonExcluded
		plan.Exclusion = why
		return plan
	}

	plan.Candidate = Candidate{
		TargetBaseName: normalizer.Kebab(candidateBaseName),
		Extension:      entry.Ext(),
	}
	canonical := plan.Candidate.Name(0)
	plan.Target = entry.Sibling(canonical)

	switch {
	case plan.Candidate.TargetBaseName == "":
		plan.Skip = true
		plan.Reason = ReasonEmptyName
	case canonical == entry.Name:
		plan.Skip = true
		plan.Reason = ReasonAlreadyCanonical
	}
	return plan
}
