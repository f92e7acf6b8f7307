package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/skillgen/pkg/types"
)

// Pipeline diagnostic codes. Structural input problems stop the run before
// any IR is built or any generation is attempted.
const (
	CodeSpecEmpty        = "SPEC_EMPTY"
	CodeSpecParse        = "SPEC_PARSE"
	CodeSpecNoOperations = "SPEC_NO_OPERATIONS"
)

// Load reads an API description (JSON or YAML), normalizes its schema
// subtrees and parses it. The description is assumed reference-resolved
// upstream; resolution here only covers local component refs.
func Load(path string) (*openapi3.T, []types.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read description: %w", err)
	}
	return LoadData(data)
}

// LoadData is Load for in-memory description bytes.
func LoadData(data []byte) (*openapi3.T, []types.Diagnostic, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		d := types.Errorf(CodeSpecEmpty, "description is empty")
		return nil, []types.Diagnostic{d}, fmt.Errorf("description is empty")
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		d := types.Errorf(CodeSpecParse, fmt.Sprintf("decode description: %v", err))
		return nil, []types.Diagnostic{d}, fmt.Errorf("decode description: %w", err)
	}
	raw = Normalize(raw)

	normalized, err := json.Marshal(raw)
	if err != nil {
		d := types.Errorf(CodeSpecParse, fmt.Sprintf("encode normalized description: %v", err))
		return nil, []types.Diagnostic{d}, fmt.Errorf("encode normalized description: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(normalized)
	if err != nil {
		d := types.Errorf(CodeSpecParse, fmt.Sprintf("parse description: %v", err))
		return nil, []types.Diagnostic{d}, fmt.Errorf("parse description: %w", err)
	}

	if countOperations(doc) == 0 {
		d := types.Errorf(CodeSpecNoOperations, "description declares no operations")
		return nil, []types.Diagnostic{d}, fmt.Errorf("description declares no operations")
	}
	return doc, nil, nil
}

func countOperations(doc *openapi3.T) int {
	if doc == nil || doc.Paths == nil {
		return 0
	}
	n := 0
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		n += len(item.Operations())
	}
	return n
}
