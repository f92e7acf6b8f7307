package types

// DiagLevel classifies a diagnostic's severity.
type DiagLevel string

const (
	LevelInfo    DiagLevel = "info"
	LevelWarning DiagLevel = "warning"
	LevelError   DiagLevel = "error"
)

// Diagnostic is one finding from compilation, validation or scanning.
// Code is stable and machine-checkable; Message is for humans.
type Diagnostic struct {
	Level   DiagLevel `json:"level"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Errorf builds an error-level diagnostic.
func Errorf(code, message string) Diagnostic {
	return Diagnostic{Level: LevelError, Code: code, Message: message}
}

// Warnf builds a warning-level diagnostic.
func Warnf(code, message string) Diagnostic {
	return Diagnostic{Level: LevelWarning, Code: code, Message: message}
}

// HasErrors reports whether any diagnostic is error-level.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// Errors returns only the error-level diagnostics, preserving order.
func Errors(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Level == LevelError {
			out = append(out, d)
		}
	}
	return out
}

// Dedupe removes diagnostics sharing an exact (code, message) identity,
// keeping the first occurrence.
func Dedupe(diags []Diagnostic) []Diagnostic {
	seen := make(map[[2]string]struct{}, len(diags))
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		key := [2]string{d.Code, d.Message}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}
