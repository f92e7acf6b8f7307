package spec

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const maxEnumValues = 8

// Summarize renders a schema node as a short human/LLM-readable string.
// References render as the referenced definition's name, never its body,
// so recursive schemas stay bounded.
func Summarize(ref *openapi3.SchemaRef) string {
	if ref == nil {
		return "any"
	}
	if ref.Ref != "" {
		if name := refName(ref.Ref); name != "" {
			return name
		}
	}
	s := ref.Value
	if s == nil {
		return "any"
	}

	if len(s.OneOf) > 0 {
		return joinBranches(s.OneOf, " | ")
	}
	if len(s.AnyOf) > 0 {
		return joinBranches(s.AnyOf, " | ")
	}
	if len(s.AllOf) > 0 {
		return joinBranches(s.AllOf, " & ")
	}
	if len(s.Enum) > 0 {
		return summarizeEnum(s.Enum)
	}

	if s.Type == nil || len(s.Type.Slice()) == 0 {
		if len(s.Properties) > 0 {
			return fmt.Sprintf("object(%d properties)", len(s.Properties))
		}
		return "any"
	}

	kinds := s.Type.Slice()
	if len(kinds) == 1 {
		return summarizeSingle(kinds[0], s)
	}
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, summarizeSingle(k, s))
	}
	return strings.Join(parts, " | ")
}

func summarizeSingle(kind string, s *openapi3.Schema) string {
	switch kind {
	case openapi3.TypeArray:
		return fmt.Sprintf("array<%s>", Summarize(s.Items))
	case openapi3.TypeObject:
		if len(s.Properties) > 0 {
			return fmt.Sprintf("object(%d properties)", len(s.Properties))
		}
		if s.AdditionalProperties.Schema != nil {
			return fmt.Sprintf("map<%s>", Summarize(s.AdditionalProperties.Schema))
		}
		return "object"
	default:
		return kind
	}
}

func summarizeEnum(values []any) string {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		if i == maxEnumValues {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return fmt.Sprintf("enum(%s)", strings.Join(parts, ", "))
}

func joinBranches(refs openapi3.SchemaRefs, sep string) string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		parts = append(parts, Summarize(r))
	}
	return strings.Join(parts, sep)
}

func refName(ref string) string {
	parts := strings.Split(ref, "/")
	return parts[len(parts)-1]
}

// collectRefs walks a schema definition body and returns the sorted set of
// named schemas it references. Reference nodes are recorded by name and not
// descended into, which bounds the walk on cyclic definitions.
func collectRefs(ref *openapi3.SchemaRef) []string {
	seen := make(map[string]struct{})
	walkRefs(ref, seen)
	return sortedKeys(seen)
}

func walkRefs(ref *openapi3.SchemaRef, seen map[string]struct{}) {
	if ref == nil {
		return
	}
	if ref.Ref != "" {
		if name := refName(ref.Ref); name != "" {
			seen[name] = struct{}{}
		}
		return
	}
	s := ref.Value
	if s == nil {
		return
	}
	for _, p := range s.Properties {
		walkRefs(p, seen)
	}
	walkRefs(s.Items, seen)
	walkRefs(s.AdditionalProperties.Schema, seen)
	for _, r := range s.OneOf {
		walkRefs(r, seen)
	}
	for _, r := range s.AnyOf {
		walkRefs(r, seen)
	}
	for _, r := range s.AllOf {
		walkRefs(r, seen)
	}
	walkRefs(s.Not, seen)
}
