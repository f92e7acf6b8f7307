package validate

import (
	"fmt"

	"github.com/yourorg/skillgen/pkg/types"
)

const (
	CodeIndexHeadingMissing = "INDEX_HEADING_MISSING"
	CodeIndexFileMissing    = "INDEX_FILE_MISSING"
	CodeIndexOpMissing      = "INDEX_OP_MISSING"

	CodeCoverageUncovered = "COVERAGE_UNCOVERED"
	CodeCoverageDuplicate = "COVERAGE_DUPLICATE"
	CodeCoverageUnknown   = "COVERAGE_UNKNOWN"
)

// ValidateIndex checks the segmented-mode index document: a Skill Files
// heading, a section per segment file, and a mention of every operation id
// inside its segment's section.
func ValidateIndex(segments []types.Segment, doc string) []types.Diagnostic {
	sections := ParseSections(doc)
	var diags []types.Diagnostic

	if _, ok := MatchSection(sections, "Skill Files"); !ok {
		diags = append(diags, types.Errorf(CodeIndexHeadingMissing,
			"index has no Skill Files section"))
	}

	for _, seg := range segments {
		section, ok := MatchSection(sections, seg.FilePath)
		if !ok {
			diags = append(diags, types.Errorf(CodeIndexFileMissing,
				fmt.Sprintf("index has no section for %s", seg.FilePath)))
			continue
		}
		text := section.Text()
		for _, id := range seg.OperationIDs() {
			if !ContainsToken(text, id) {
				diags = append(diags, types.Errorf(CodeIndexOpMissing,
					fmt.Sprintf("index section for %s does not mention operation %s", seg.FilePath, id)))
			}
		}
	}
	return diags
}

// CheckCoverage verifies segmentation integrity against the parent IR:
// every operation id appears in exactly one segment, and no segment claims
// an id the IR does not have.
func CheckCoverage(ir *types.SpecIR, segments []types.Segment) []types.Diagnostic {
	known := make(map[string]struct{}, len(ir.Operations))
	for _, op := range ir.Operations {
		known[op.ID] = struct{}{}
	}

	counts := make(map[string]int)
	var diags []types.Diagnostic
	for _, seg := range segments {
		for _, id := range seg.OperationIDs() {
			counts[id]++
			if _, ok := known[id]; !ok {
				diags = append(diags, types.Errorf(CodeCoverageUnknown,
					fmt.Sprintf("segment %s contains unknown operation %s", seg.Slug, id)))
			}
		}
	}
	for _, op := range ir.Operations {
		switch counts[op.ID] {
		case 0:
			diags = append(diags, types.Errorf(CodeCoverageUncovered,
				fmt.Sprintf("operation %s is not covered by any segment", op.ID)))
		case 1:
		default:
			diags = append(diags, types.Errorf(CodeCoverageDuplicate,
				fmt.Sprintf("operation %s is covered %d times", op.ID, counts[op.ID])))
		}
	}
	return diags
}
