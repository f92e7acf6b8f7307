package validate

import (
	"fmt"
	"regexp"

	"github.com/yourorg/skillgen/internal/closure"
	"github.com/yourorg/skillgen/pkg/types"
)

// Validator diagnostic codes. Stable, namespaced apart from the pipeline's
// SPEC_* codes so callers can filter by origin without parsing messages.
const (
	CodeOpsHeadingMissing    = "OPS_HEADING_MISSING"
	CodeOpSectionMissing     = "OP_SECTION_MISSING"
	CodeParamMissing         = "PARAM_MISSING"
	CodeExampleMissing       = "EXAMPLE_MISSING"
	CodeAuthSectionMissing   = "AUTH_SECTION_MISSING"
	CodeAuthSchemeMissing    = "AUTH_SCHEME_MISSING"
	CodeAuthLanguageMissing  = "AUTH_LANGUAGE_MISSING"
	CodeSchemaSectionMissing = "SCHEMA_SECTION_MISSING"
	CodeSchemaMissing        = "SCHEMA_MISSING"
)

var (
	exampleRE  = regexp.MustCompile(`(?i)\bexamples?\b`)
	authWordRE = regexp.MustCompile(`(?i)\b(auth|authentication|authorization|token|credentials?|api.key|bearer|oauth)\b`)
)

// ValidateDocument checks a generated document against the IR's contract:
// a section per operation, required parameter and example mentions, auth
// coverage, and a sub-heading per reachable schema.
func ValidateDocument(ir *types.SpecIR, doc string) []types.Diagnostic {
	sections := ParseSections(doc)
	var diags []types.Diagnostic

	if _, ok := MatchSection(sections, "Operations"); !ok {
		if !anyOperationMatched(sections, ir.Operations) {
			diags = append(diags, types.Errorf(CodeOpsHeadingMissing, "document has no Operations section"))
		}
	}

	for _, op := range ir.Operations {
		diags = append(diags, validateOperation(sections, op)...)
	}

	diags = append(diags, validateAuthSection(sections, ir)...)
	diags = append(diags, validateSchemaSection(sections, ir)...)
	return diags
}

func anyOperationMatched(sections []Section, ops []types.OperationIR) bool {
	for _, op := range ops {
		if _, ok := MatchSection(sections, op.ID); ok {
			return true
		}
	}
	return false
}

func validateOperation(sections []Section, op types.OperationIR) []types.Diagnostic {
	var diags []types.Diagnostic
	section, ok := MatchSection(sections, op.ID)
	if !ok {
		diags = append(diags, types.Errorf(CodeOpSectionMissing,
			fmt.Sprintf("operation %s has no section in the document", op.ID)))
		return diags
	}
	text := section.Text()

	for _, p := range op.Parameters {
		if !p.Required {
			continue
		}
		if !ContainsToken(text, p.Name) {
			diags = append(diags, types.Errorf(CodeParamMissing,
				fmt.Sprintf("operation %s does not document required parameter %s", op.ID, p.Name)))
		}
	}

	if !exampleRE.MatchString(text) {
		diags = append(diags, types.Errorf(CodeExampleMissing,
			fmt.Sprintf("operation %s has no example request", op.ID)))
	}

	diags = append(diags, validateOperationAuth(text, op)...)
	return diags
}

// validateOperationAuth requires the section to name every required scheme
// or, when no scheme is named, to at least carry generic auth vocabulary.
// Optional-auth operations are exempt from naming schemes but not from the
// vocabulary fallback.
func validateOperationAuth(text string, op types.OperationIR) []types.Diagnostic {
	if op.Auth == nil || len(op.Auth.Requirements) == 0 {
		return nil
	}
	required := op.Auth.SchemeNames()
	var named, missing []string
	for _, scheme := range required {
		if ContainsToken(text, scheme) {
			named = append(named, scheme)
		} else {
			missing = append(missing, scheme)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if len(named) == 0 {
		if authWordRE.MatchString(text) {
			return nil
		}
		return []types.Diagnostic{types.Errorf(CodeAuthLanguageMissing,
			fmt.Sprintf("operation %s does not mention authentication", op.ID))}
	}
	if op.Auth.Optional {
		return nil
	}
	var diags []types.Diagnostic
	for _, scheme := range missing {
		diags = append(diags, types.Errorf(CodeAuthSchemeMissing,
			fmt.Sprintf("operation %s does not name required scheme %s", op.ID, scheme)))
	}
	return diags
}

func validateAuthSection(sections []Section, ir *types.SpecIR) []types.Diagnostic {
	required := requiredSchemes(ir)
	if len(required) == 0 {
		return nil
	}
	section, ok := MatchSection(sections, "Authentication")
	if !ok {
		return []types.Diagnostic{types.Errorf(CodeAuthSectionMissing,
			"document has no Authentication section")}
	}
	subs := SubSections(sections, section)
	var diags []types.Diagnostic
	for _, scheme := range required {
		found := false
		for _, sub := range subs {
			if ContainsToken(sub.Heading, scheme) {
				found = true
				break
			}
		}
		if !found {
			diags = append(diags, types.Errorf(CodeAuthSchemeMissing,
				fmt.Sprintf("Authentication section does not document scheme %s", scheme)))
		}
	}
	return diags
}

func requiredSchemes(ir *types.SpecIR) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, op := range ir.Operations {
		for _, name := range op.Auth.SchemeNames() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func validateSchemaSection(sections []Section, ir *types.SpecIR) []types.Diagnostic {
	required := closure.Names(ir.Operations, ir.Schemas)
	if len(required) == 0 {
		return nil
	}
	section, ok := MatchSection(sections, "Schemas")
	if !ok {
		return []types.Diagnostic{types.Errorf(CodeSchemaSectionMissing,
			"document has no Schemas section")}
	}
	subs := SubSections(sections, section)
	var diags []types.Diagnostic
	for _, name := range required {
		found := false
		for _, sub := range subs {
			if ContainsToken(sub.Heading, name) {
				found = true
				break
			}
		}
		if !found {
			diags = append(diags, types.Errorf(CodeSchemaMissing,
				fmt.Sprintf("Schemas section does not document %s", name)))
		}
	}
	return diags
}
