// Package segment partitions a SpecIR's operations into named groups, each
// carrying the transitive closure of the schemas it needs.
package segment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourorg/skillgen/internal/closure"
	"github.com/yourorg/skillgen/pkg/types"
)

// Build partitions the IR's operations into segments. Group key is the
// operation's first tag, or its first non-empty path component when
// untagged. Every operation lands in exactly one segment; groups come back
// sorted by title and slug collisions get a numeric suffix.
func Build(ir *types.SpecIR) []types.Segment {
	groups := make(map[string][]types.OperationIR)
	var order []string
	for _, op := range ir.Operations {
		key := groupKey(op)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], op)
	}

	segments := make([]types.Segment, 0, len(order))
	for _, key := range order {
		ops := groups[key]
		segments = append(segments, types.Segment{
			Key:        key,
			Title:      titleFor(key),
			Operations: ops,
			Schemas:    closure.Restrict(ops, ir.Schemas),
		})
	}

	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].Title != segments[j].Title {
			return segments[i].Title < segments[j].Title
		}
		return segments[i].Key < segments[j].Key
	})

	assignSlugs(segments)
	return segments
}

func groupKey(op types.OperationIR) string {
	if len(op.Tags) > 0 && strings.TrimSpace(op.Tags[0]) != "" {
		return strings.TrimSpace(op.Tags[0])
	}
	for _, part := range strings.Split(op.Path, "/") {
		if part != "" {
			return part
		}
	}
	return "root"
}

func titleFor(key string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(key)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return key
	}
	return strings.Join(words, " ")
}

func assignSlugs(segments []types.Segment) {
	used := make(map[string]struct{}, len(segments))
	for i := range segments {
		slug := slugify(segments[i].Key)
		if slug == "" {
			slug = "group"
		}
		candidate := slug
		for n := 2; ; n++ {
			if _, taken := used[candidate]; !taken {
				break
			}
			candidate = fmt.Sprintf("%s-%d", slug, n)
		}
		used[candidate] = struct{}{}
		segments[i].Slug = candidate
		segments[i].FilePath = "skills/" + candidate + ".md"
	}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
