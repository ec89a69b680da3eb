package detector

import (
	"github.com/nvr-ai/go-subject/images"
	"github.com/nvr-ai/go-subject/models/postprocess"
)

// Outcome is what happened to a candidate that passed the confidence filter.
type Outcome string

// Candidate outcomes.
const (
	OutcomeKept            Outcome = "kept"
	OutcomeSuppressed      Outcome = "suppressed"
	OutcomeCatalogMismatch Outcome = "catalog_mismatch"
	OutcomeClassFiltered   Outcome = "class_filtered"
)

// Diagnostic describes one candidate in model-input space.
type Diagnostic struct {
	Row        int        `json:"row"`
	ClassID    int        `json:"class_id"`
	ClassName  string     `json:"class,omitempty"`
	Confidence float32    `json:"confidence"`
	Box        images.Box `json:"box"`
	Outcome    Outcome    `json:"outcome"`
}

// diagnose labels every candidate, in candidate order.
func diagnose(
	candidates []postprocess.Detection,
	kept []int,
	dropped map[int]postprocess.DropReason,
	catalog Catalog,
) []Diagnostic {
	survived := make(map[int]bool, len(kept))
	for _, idx := range kept {
		survived[idx] = true
	}

	diagnostics := make([]Diagnostic, len(candidates))
	for i, c := range candidates {
		outcome := OutcomeSuppressed
		if survived[i] {
			outcome = OutcomeKept
			switch dropped[c.Row] {
			case postprocess.DropCatalogMismatch:
				outcome = OutcomeCatalogMismatch
			case postprocess.DropClassFiltered:
				outcome = OutcomeClassFiltered
			}
		}

		name, _ := catalog.Name(c.ClassID)
		diagnostics[i] = Diagnostic{
			Row:        c.Row,
			ClassID:    c.ClassID,
			ClassName:  name,
			Confidence: c.Confidence,
			Box:        c.Box,
			Outcome:    outcome,
		}
	}
	return diagnostics
}
