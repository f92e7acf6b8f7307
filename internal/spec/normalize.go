package spec

// Normalize canonicalizes every schema-shaped subtree of a raw JSON-like
// document. Two legacy nullability spellings are rewritten into one shape:
// a "type" list containing "null" and a boolean "nullable" flag both end up
// as either a plain single type or an "anyOf" union with a null branch.
// The rewrite is bottom-up and idempotent; malformed or absent fields pass
// through untouched.
func Normalize(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			node[k] = Normalize(child)
		}
		return rewriteNode(node)
	case []any:
		for i := range node {
			node[i] = Normalize(node[i])
		}
		return node
	default:
		return v
	}
}

func rewriteNode(node map[string]any) any {
	if list, ok := typeList(node); ok {
		others := make([]string, 0, len(list))
		sawNull := false
		for _, t := range list {
			if t == "null" {
				sawNull = true
				continue
			}
			others = append(others, t)
		}
		if sawNull {
			switch len(others) {
			case 0:
				node["type"] = "null"
			case 1:
				node["type"] = others[0]
			default:
				branches := make([]any, 0, len(others))
				for _, t := range others {
					branches = append(branches, map[string]any{"type": t})
				}
				delete(node, "type")
				// a node carrying both spellings keeps its declared union
				if existing, ok := node["anyOf"].([]any); ok {
					node["anyOf"] = append(existing, branches...)
				} else {
					node["anyOf"] = branches
				}
			}
		}
	}

	nullable, hasFlag := node["nullable"].(bool)
	if !hasFlag {
		return node
	}
	delete(node, "nullable")
	if !nullable {
		return node
	}

	if union, ok := node["anyOf"].([]any); ok {
		if !hasNullBranch(union) {
			node["anyOf"] = append(union, map[string]any{"type": "null"})
		}
		return node
	}
	if _, ok := node["type"].(string); ok {
		value := make(map[string]any, len(node))
		for k, v := range node {
			value[k] = v
		}
		return map[string]any{
			"anyOf": []any{value, map[string]any{"type": "null"}},
		}
	}
	return node
}

func typeList(node map[string]any) ([]string, bool) {
	raw, ok := node["type"].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func hasNullBranch(union []any) bool {
	for _, b := range union {
		m, ok := b.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := m["type"].(string); ok && t == "null" {
			return true
		}
	}
	return false
}
