package generator

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/yourorg/skillgen/pkg/types"
)

const documentInstructions = `You are an API documentation expert writing a skill file for AI agents.
Produce a single markdown document with this structure:
- a top-level title
- an "Operations" section with one sub-heading per operation, in the order given;
  put the operation id in backticks in the heading
- under each operation: its method and path, every parameter (name, location,
  type, required or optional), the request body and response shapes, and an
  example request in a fenced code block introduced with the word "Example"
- if any operation requires authentication: an "Authentication" section with one
  sub-heading per security scheme, explaining how to supply the credential
- if schemas are listed below: a "Schemas" section with one sub-heading per
  schema name
Never include real credentials. Use placeholders like $API_KEY or <token> in
examples. Output only the markdown document, nothing else.`

const indexInstructions = `You are an API documentation expert writing the index of a multi-file skill.
Produce a single markdown document with this structure:
- a top-level title
- a short overview of the API
- a "Skill Files" section with one sub-heading per file path given below;
  put the file path in backticks in the heading
- under each file heading: one line per operation id in that file (id in
  backticks) with a short description
Output only the markdown document, nothing else.`

// EstimateTokens provides a rough token estimate.
// Han text is ~2 chars/token, everything else ~4 chars/token.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	var cjk, other int
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			cjk++
			continue
		}
		other++
	}
	return (cjk+1)/2 + (other+3)/4
}

// BuildDocumentPrompt renders a single-document prompt for the whole IR.
func BuildDocumentPrompt(ir *types.SpecIR, budget int) string {
	var b strings.Builder
	b.WriteString(documentInstructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "# API: %s (version %s)\n", ir.Title, ir.Version)
	for _, srv := range ir.Servers {
		fmt.Fprintf(&b, "Server: %s\n", srv)
	}
	writeSchemes(&b, ir.SecuritySchemes)
	writeOperations(&b, ir.Operations, budget)
	writeSchemas(&b, ir.Schemas)
	return b.String()
}

// BuildSegmentPrompt renders a prompt for one segment's sub-IR.
func BuildSegmentPrompt(ir *types.SpecIR, seg types.Segment, budget int) string {
	var b strings.Builder
	b.WriteString(documentInstructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "# API: %s (version %s) — %s\n", ir.Title, ir.Version, seg.Title)
	for _, srv := range ir.Servers {
		fmt.Fprintf(&b, "Server: %s\n", srv)
	}
	writeSchemes(&b, ir.SecuritySchemes)
	writeOperations(&b, seg.Operations, budget)
	writeSchemas(&b, seg.Schemas)
	return b.String()
}

// BuildIndexPrompt renders the index prompt from final per-segment
// operation assignments.
func BuildIndexPrompt(ir *types.SpecIR, segments []types.Segment) string {
	var b strings.Builder
	b.WriteString(indexInstructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "# API: %s (version %s)\n\n## Files\n", ir.Title, ir.Version)
	for _, seg := range segments {
		fmt.Fprintf(&b, "\n### %s (%s)\n", seg.FilePath, seg.Title)
		for _, op := range seg.Operations {
			fmt.Fprintf(&b, "- `%s` %s %s — %s\n", op.ID, op.Method, op.Path, op.Summary)
		}
	}
	return b.String()
}

// BuildRepairPrompt feeds the prior document and the validator findings
// back for another attempt against the same contract.
func BuildRepairPrompt(basePrompt, prior string, diags []types.Diagnostic) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\nYour previous version of the document failed validation:\n")
	for _, d := range diags {
		fmt.Fprintf(&b, "- [%s] %s\n", d.Code, d.Message)
	}
	b.WriteString("\nFix every finding above and output the full corrected document.\n")
	b.WriteString("\n## Previous version\n\n")
	b.WriteString(prior)
	return b.String()
}

func writeOperations(b *strings.Builder, ops []types.OperationIR, budget int) {
	b.WriteString("\n## Operations\n")
	compact := budget > 0 && EstimateTokens(renderOperations(ops, false)) > budget
	b.WriteString(renderOperations(ops, compact))
}

func renderOperations(ops []types.OperationIR, compact bool) string {
	var b strings.Builder
	for _, op := range ops {
		fmt.Fprintf(&b, "\n### `%s` %s %s\n", op.ID, op.Method, op.Path)
		if op.Summary != "" {
			fmt.Fprintf(&b, "%s\n", op.Summary)
		}
		if !compact && op.Description != "" {
			fmt.Fprintf(&b, "%s\n", op.Description)
		}
		for _, p := range op.Parameters {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "- param %s (%s, %s): %s", p.Name, p.Location, req, p.Schema)
			if !compact && p.Description != "" {
				fmt.Fprintf(&b, " — %s", p.Description)
			}
			if p.Default != "" {
				fmt.Fprintf(&b, " (default %s)", p.Default)
			}
			b.WriteByte('\n')
		}
		if op.RequestBody != nil {
			req := "optional"
			if op.RequestBody.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "- request body (%s): %s [%s]\n",
				req, op.RequestBody.Schema, strings.Join(op.RequestBody.ContentTypes, ", "))
		}
		for _, r := range op.Responses {
			fmt.Fprintf(&b, "- response %s: %s", r.Status, r.Schema)
			if !compact && r.Description != "" {
				fmt.Fprintf(&b, " — %s", r.Description)
			}
			b.WriteByte('\n')
		}
		writeAuthLine(&b, op.Auth)
	}
	return b.String()
}

func writeAuthLine(b *strings.Builder, auth *types.OperationAuthIR) {
	if auth == nil {
		return
	}
	if len(auth.Requirements) == 0 {
		if auth.Optional {
			b.WriteString("- auth: optional\n")
		}
		return
	}
	var alts []string
	for _, set := range auth.Requirements {
		var parts []string
		for _, req := range set.Schemes {
			if len(req.Scopes) > 0 {
				parts = append(parts, fmt.Sprintf("%s (scopes: %s)", req.Scheme, strings.Join(req.Scopes, ", ")))
			} else {
				parts = append(parts, req.Scheme)
			}
		}
		alts = append(alts, strings.Join(parts, " + "))
	}
	line := "- auth: " + strings.Join(alts, " OR ")
	if auth.Optional {
		line += " (optional)"
	}
	b.WriteString(line + "\n")
}

func writeSchemes(b *strings.Builder, schemes map[string]types.SecuritySchemeIR) {
	if len(schemes) == 0 {
		return
	}
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	b.WriteString("\n## Security schemes\n")
	for _, name := range names {
		s := schemes[name]
		fmt.Fprintf(b, "- %s: %s", name, s.Type)
		switch {
		case s.APIKey != nil:
			fmt.Fprintf(b, " (%s %q)", s.APIKey.In, s.APIKey.ParamName)
		case s.HTTP != nil:
			fmt.Fprintf(b, " (%s)", s.HTTP.Scheme)
		case s.OAuth2 != nil:
			var flows []string
			for _, f := range s.OAuth2.Flows {
				flows = append(flows, f.Type)
			}
			fmt.Fprintf(b, " (flows: %s)", strings.Join(flows, ", "))
		case s.OpenIDConnect != nil && s.OpenIDConnect.DiscoveryURL != "":
			fmt.Fprintf(b, " (%s)", s.OpenIDConnect.DiscoveryURL)
		}
		b.WriteByte('\n')
	}
}

func writeSchemas(b *strings.Builder, schemas map[string]types.SchemaDef) {
	if len(schemas) == 0 {
		return
	}
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	b.WriteString("\n## Schemas\n")
	for _, name := range names {
		fmt.Fprintf(b, "- %s: %s\n", name, schemas[name].Summary)
	}
}
