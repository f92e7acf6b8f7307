package spec

import (
	"strings"

	"github.com/yourorg/skillgen/internal/config"
	"github.com/yourorg/skillgen/pkg/types"
)

// FilterOperations drops operations excluded by config rules and returns a
// new SpecIR; the input is never mutated. Schemas and schemes are carried
// over untouched since downstream closure restricts them per use.
func FilterOperations(ir *types.SpecIR, cfg config.FilterConfig) *types.SpecIR {
	out := *ir
	out.Operations = make([]types.OperationIR, 0, len(ir.Operations))
	for _, op := range ir.Operations {
		if cfg.SkipDeprecated && op.Deprecated {
			continue
		}
		if hasIgnoredPath(op.Path, cfg.IgnorePaths) {
			continue
		}
		if hasIgnoredTag(op.Tags, cfg.IgnoreTags) {
			continue
		}
		out.Operations = append(out.Operations, op)
	}
	return &out
}

func hasIgnoredPath(p string, prefixes []string) bool {
	for _, pref := range prefixes {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		if strings.HasPrefix(p, pref) {
			return true
		}
	}
	return false
}

func hasIgnoredTag(tags, ignored []string) bool {
	for _, t := range tags {
		for _, ig := range ignored {
			if strings.EqualFold(strings.TrimSpace(ig), t) {
				return true
			}
		}
	}
	return false
}
