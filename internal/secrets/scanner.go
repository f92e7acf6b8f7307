// Package secrets lexically screens generated text for credential-shaped
// literals. It is independent of the IR: any text passes through the same
// pattern, header-literal and environment-value checks.
package secrets

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yourorg/skillgen/pkg/types"
)

const (
	CodeSecretPattern = "SECRET_PATTERN"
	CodeSecretHeader  = "SECRET_HEADER"
	CodeSecretEnv     = "SECRET_ENV"
)

// High-confidence literal shapes. A match is an error regardless of the
// surrounding context.
var literalPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"sk-ant token", regexp.MustCompile(`\bsk-ant-[A-Za-z0-9_-]{12,}`)},
	{"sk token", regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}`)},
	{"github token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{16,}`)},
	{"jwt", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}`)},
	{"private key block", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)},
}

var headerPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Authorization: Bearer", regexp.MustCompile(`(?im)authorization:\s*bearer\s+(\S+)`)},
	{"Authorization: Basic", regexp.MustCompile(`(?im)authorization:\s*basic\s+(\S+)`)},
	{"x-api-key", regexp.MustCompile(`(?im)x-api-key:\s*(\S+)`)},
}

var basicURLRE = regexp.MustCompile(`[a-z][a-z0-9+.-]*://[^/\s:@]+:([^/\s@]+)@`)

var (
	maskedRE      = regexp.MustCompile(`^[xX*.\x{2026}]+$`)
	leadingCapsRE = regexp.MustCompile(`^[A-Z]{2,}`)
)

var instructionalWords = []string{
	"YOUR", "REPLACE", "INSERT", "ENTER",
	"EXAMPLE", "DUMMY", "REDACTED", "MASKED", "PLACEHOLDER",
}

// Scan screens text for credential leakage. watchEnv names environment
// variables whose current non-empty values must not appear verbatim in the
// text. Results are de-duplicated by exact (code, message) identity.
func Scan(text string, watchEnv []string) []types.Diagnostic {
	var diags []types.Diagnostic

	for _, p := range literalPatterns {
		if m := p.re.FindString(text); m != "" {
			diags = append(diags, types.Errorf(CodeSecretPattern,
				fmt.Sprintf("text contains a %s literal", p.name)))
		}
	}

	for _, p := range headerPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			value := strings.Trim(m[1], "`\"'")
			if IsPlaceholder(value) {
				continue
			}
			diags = append(diags, types.Errorf(CodeSecretHeader,
				fmt.Sprintf("%s header carries a credential-shaped literal", p.name)))
		}
	}
	for _, m := range basicURLRE.FindAllStringSubmatch(text, -1) {
		if IsPlaceholder(m[1]) {
			continue
		}
		diags = append(diags, types.Errorf(CodeSecretHeader,
			"URL carries basic-auth credentials"))
	}

	for _, name := range watchEnv {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if strings.Contains(text, value) {
			diags = append(diags, types.Errorf(CodeSecretEnv,
				fmt.Sprintf("text contains the value of environment variable %s", name)))
		}
	}

	return types.Dedupe(diags)
}

// IsPlaceholder reports whether a credential-shaped value is clearly a
// stand-in: empty, an environment reference, an angle-bracket token, a
// leading all-caps instructional word, or a masking pattern.
func IsPlaceholder(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	if strings.HasPrefix(value, "$") {
		return true
	}
	if strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">") {
		return true
	}
	if run := leadingCapsRE.FindString(value); run != "" {
		for _, word := range instructionalWords {
			if strings.HasPrefix(run, word) {
				return true
			}
		}
	}
	if maskedRE.MatchString(value) {
		return true
	}
	if strings.Contains(value, "...") {
		return true
	}
	return false
}
