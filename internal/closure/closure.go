// Package closure computes the transitive set of named schema definitions
// reachable from a set of operations.
package closure

import (
	"regexp"
	"sort"
	"sync"

	"github.com/yourorg/skillgen/pkg/types"
)

var (
	wordRE   = map[string]*regexp.Regexp{}
	wordREMu sync.Mutex
)

func wordPattern(name string) *regexp.Regexp {
	wordREMu.Lock()
	defer wordREMu.Unlock()
	re, ok := wordRE[name]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		wordRE[name] = re
	}
	return re
}

// Reachable returns every schema name transitively reachable from the
// parameter, request-body and response schema summaries of the given
// operations. The walk is an explicit work queue over the name-keyed
// definition map; a name is enqueued at most once, so cyclic reference
// graphs terminate. Names referenced but absent from the map contribute
// nothing and are not an error.
func Reachable(ops []types.OperationIR, schemas map[string]types.SchemaDef) map[string]struct{} {
	result := make(map[string]struct{})
	if len(schemas) == 0 {
		return result
	}

	var queue []string
	enqueue := func(name string) {
		if _, known := schemas[name]; !known {
			return
		}
		if _, ok := result[name]; ok {
			return
		}
		result[name] = struct{}{}
		queue = append(queue, name)
	}

	// seed from every summary string that names a known schema
	for name := range schemas {
		re := wordPattern(name)
		for _, op := range ops {
			if operationMentions(op, re) {
				enqueue(name)
				break
			}
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, ref := range schemas[name].Refs {
			enqueue(ref)
		}
	}
	return result
}

// Names is Reachable with a sorted slice result.
func Names(ops []types.OperationIR, schemas map[string]types.SchemaDef) []string {
	set := Reachable(ops, schemas)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Restrict returns the subset of schemas reachable from ops, keyed by name.
func Restrict(ops []types.OperationIR, schemas map[string]types.SchemaDef) map[string]types.SchemaDef {
	set := Reachable(ops, schemas)
	if len(set) == 0 {
		return nil
	}
	out := make(map[string]types.SchemaDef, len(set))
	for name := range set {
		out[name] = schemas[name]
	}
	return out
}

func operationMentions(op types.OperationIR, re *regexp.Regexp) bool {
	for _, p := range op.Parameters {
		if re.MatchString(p.Schema) {
			return true
		}
	}
	if op.RequestBody != nil && re.MatchString(op.RequestBody.Schema) {
		return true
	}
	for _, r := range op.Responses {
		if re.MatchString(r.Schema) {
			return true
		}
	}
	return false
}
