package spec

import (
	"testing"

	"github.com/yourorg/skillgen/pkg/types"
)

func TestLoadDataEmpty(t *testing.T) {
	_, diags, err := LoadData([]byte("   \n\t"))
	if err == nil {
		t.Fatalf("expected an error for empty input")
	}
	if len(diags) != 1 || diags[0].Code != CodeSpecEmpty {
		t.Fatalf("got diagnostics %v, want one %s", diags, CodeSpecEmpty)
	}
	if diags[0].Level != types.LevelError {
		t.Fatalf("got level %s", diags[0].Level)
	}
}

func TestLoadDataUnparseable(t *testing.T) {
	_, diags, err := LoadData([]byte("{unclosed: ["))
	if err == nil {
		t.Fatalf("expected an error for malformed input")
	}
	if len(diags) != 1 || diags[0].Code != CodeSpecParse {
		t.Fatalf("got diagnostics %v, want one %s", diags, CodeSpecParse)
	}
}

func TestLoadDataNoOperations(t *testing.T) {
	doc := `
openapi: 3.0.3
info:
  title: Empty
  version: "1.0"
paths: {}
`
	_, diags, err := LoadData([]byte(doc))
	if err == nil {
		t.Fatalf("expected an error for an operation-free description")
	}
	if len(diags) != 1 || diags[0].Code != CodeSpecNoOperations {
		t.Fatalf("got diagnostics %v, want one %s", diags, CodeSpecNoOperations)
	}
}

func TestLoadDataNormalizesNullability(t *testing.T) {
	doc := `
openapi: 3.0.3
info:
  title: Nullable
  version: "1.0"
paths:
  /things:
    get:
      operationId: list_things
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Thing'
components:
  schemas:
    Thing:
      type: object
      properties:
        label:
          type: string
          nullable: true
`
	parsed, diags, err := LoadData([]byte(doc))
	if err != nil {
		t.Fatalf("LoadData: %v (diags %v)", err, diags)
	}
	ir, err := Compile(parsed)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	// the legacy flag becomes a real union, visible in the summary
	if got := ir.Schemas["Thing"].Summary; got != "object(1 properties)" {
		t.Fatalf("got summary %q", got)
	}
	label := parsed.Components.Schemas["Thing"].Value.Properties["label"].Value
	if len(label.AnyOf) != 2 {
		t.Fatalf("nullable should normalize to a two-branch union, got %+v", label)
	}
}
