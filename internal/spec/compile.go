package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/yourorg/skillgen/pkg/types"
)

var methodRank = map[string]int{
	"GET":     0,
	"POST":    1,
	"PUT":     2,
	"PATCH":   3,
	"DELETE":  4,
	"HEAD":    5,
	"OPTIONS": 6,
	"TRACE":   7,
}

// MethodRank returns the fixed sort rank for an HTTP method.
func MethodRank(method string) int {
	if r, ok := methodRank[strings.ToUpper(method)]; ok {
		return r
	}
	return len(methodRank)
}

// Compile walks a parsed description and produces the SpecIR. The result is
// fully ordered: operations by (path, method rank), everything else by name,
// so the same input always yields byte-identical output.
func Compile(doc *openapi3.T) (*types.SpecIR, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	ir := &types.SpecIR{
		SecuritySchemes: compileSecuritySchemes(doc),
		Schemas:         compileSchemas(doc),
	}
	if doc.Info != nil {
		ir.Title = doc.Info.Title
		ir.Version = doc.Info.Version
	}
	for _, srv := range doc.Servers {
		if srv != nil && srv.URL != "" {
			ir.Servers = append(ir.Servers, srv.URL)
		}
	}

	if doc.Paths != nil {
		for path, item := range doc.Paths.Map() {
			if item == nil {
				continue
			}
			for method, op := range item.Operations() {
				if op == nil {
					continue
				}
				ir.Operations = append(ir.Operations, compileOperation(doc, path, method, item, op))
			}
		}
	}

	sort.SliceStable(ir.Operations, func(i, j int) bool {
		a, b := ir.Operations[i], ir.Operations[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return MethodRank(a.Method) < MethodRank(b.Method)
	})
	dedupeOperationIDs(ir.Operations)
	return ir, nil
}

// dedupeOperationIDs keeps ids unique across the IR. Distinct paths can slug
// to the same derived id ("/items" and "/items/"); later occurrences in the
// sorted order get a numeric suffix, so the outcome is deterministic.
func dedupeOperationIDs(ops []types.OperationIR) {
	used := make(map[string]struct{}, len(ops))
	for i := range ops {
		candidate := ops[i].ID
		for n := 2; ; n++ {
			if _, taken := used[candidate]; !taken {
				break
			}
			candidate = fmt.Sprintf("%s_%d", ops[i].ID, n)
		}
		used[candidate] = struct{}{}
		ops[i].ID = candidate
	}
}

func compileOperation(doc *openapi3.T, path, method string, item *openapi3.PathItem, op *openapi3.Operation) types.OperationIR {
	out := types.OperationIR{
		ID:          operationID(op.OperationID, method, path),
		Method:      strings.ToUpper(method),
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        append([]string(nil), op.Tags...),
		Deprecated:  op.Deprecated,
		Parameters:  mergeParameters(item.Parameters, op.Parameters),
		RequestBody: compileRequestBody(op.RequestBody),
		Responses:   compileResponses(op.Responses),
		Auth:        resolveAuth(doc, op),
	}
	return out
}

// operationID uses the declared identifier when present, otherwise derives
// a deterministic slug from method and path.
func operationID(declared, method, path string) string {
	if id := strings.TrimSpace(declared); id != "" {
		return id
	}
	slug := slugify(path)
	if slug == "" {
		slug = "root"
	}
	return strings.ToLower(method) + "_" + slug
}

func slugify(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// mergeParameters combines path-level and operation-level parameters keyed
// by (location, name); operation-level entries win in place, new ones are
// appended in declaration order.
func mergeParameters(pathParams, opParams openapi3.Parameters) []types.ParameterIR {
	type key struct {
		loc  types.ParamLocation
		name string
	}
	var out []types.ParameterIR
	index := make(map[key]int)
	add := func(params openapi3.Parameters) {
		for _, ref := range params {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := compileParameter(ref.Value)
			k := key{p.Location, p.Name}
			if i, ok := index[k]; ok {
				out[i] = p
				continue
			}
			index[k] = len(out)
			out = append(out, p)
		}
	}
	add(pathParams)
	add(opParams)
	return out
}

func compileParameter(p *openapi3.Parameter) types.ParameterIR {
	out := types.ParameterIR{
		Name:        p.Name,
		Location:    paramLocation(p.In),
		Required:    p.Required,
		Schema:      Summarize(p.Schema),
		Description: p.Description,
	}
	if p.Schema != nil && p.Schema.Value != nil {
		s := p.Schema.Value
		if s.Default != nil {
			out.Default = fmt.Sprint(s.Default)
		}
		for _, v := range s.Enum {
			out.Enum = append(out.Enum, fmt.Sprint(v))
		}
	}
	return out
}

func paramLocation(in string) types.ParamLocation {
	switch in {
	case "path":
		return types.InPath
	case "header":
		return types.InHeader
	case "cookie":
		return types.InCookie
	default:
		return types.InQuery
	}
}

func compileRequestBody(ref *openapi3.RequestBodyRef) *types.RequestBodyIR {
	if ref == nil || ref.Value == nil || len(ref.Value.Content) == 0 {
		return nil
	}
	schema, ctypes := pickContent(ref.Value.Content)
	return &types.RequestBodyIR{
		Required:     ref.Value.Required,
		Schema:       schema,
		ContentTypes: ctypes,
	}
}

func compileResponses(responses *openapi3.Responses) []types.ResponseIR {
	if responses == nil {
		return nil
	}
	m := responses.Map()
	statuses := make([]string, 0, len(m))
	for status := range m {
		statuses = append(statuses, status)
	}
	// numeric statuses first, "default" and friends after
	sort.Slice(statuses, func(i, j int) bool {
		a, b := statuses[i], statuses[j]
		an, bn := isNumeric(a), isNumeric(b)
		if an != bn {
			return an
		}
		return a < b
	})

	var out []types.ResponseIR
	for _, status := range statuses {
		ref := m[status]
		if ref == nil || ref.Value == nil {
			continue
		}
		r := types.ResponseIR{Status: status}
		if ref.Value.Description != nil {
			r.Description = *ref.Value.Description
		}
		if len(ref.Value.Content) > 0 {
			r.Schema, r.ContentTypes = pickContent(ref.Value.Content)
		}
		out = append(out, r)
	}
	return out
}

// pickContent prefers the JSON media type's schema, falling back to the
// first media type (in sorted order) with any declared schema. All declared
// content types are recorded regardless.
func pickContent(content openapi3.Content) (string, []string) {
	ctypes := make([]string, 0, len(content))
	for ct := range content {
		ctypes = append(ctypes, ct)
	}
	sort.Strings(ctypes)

	pick := func(ct string) (string, bool) {
		mt := content[ct]
		if mt == nil || mt.Schema == nil {
			return "", false
		}
		return Summarize(mt.Schema), true
	}

	if s, ok := pick("application/json"); ok {
		return s, ctypes
	}
	for _, ct := range ctypes {
		if strings.Contains(ct, "json") {
			if s, ok := pick(ct); ok {
				return s, ctypes
			}
		}
	}
	for _, ct := range ctypes {
		if s, ok := pick(ct); ok {
			return s, ctypes
		}
	}
	return "", ctypes
}

func compileSchemas(doc *openapi3.T) map[string]types.SchemaDef {
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil
	}
	out := make(map[string]types.SchemaDef, len(doc.Components.Schemas))
	for name, ref := range doc.Components.Schemas {
		out[name] = types.SchemaDef{
			Name:    name,
			Summary: Summarize(ref),
			Refs:    collectRefs(ref),
		}
	}
	return out
}

// SchemaNames returns the IR's schema definition names, sorted.
func SchemaNames(ir *types.SpecIR) []string {
	names := make([]string, 0, len(ir.Schemas))
	for name := range ir.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemeNames returns the IR's security scheme names, sorted.
func SchemeNames(ir *types.SpecIR) []string {
	names := make([]string, 0, len(ir.SecuritySchemes))
	for name := range ir.SecuritySchemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
