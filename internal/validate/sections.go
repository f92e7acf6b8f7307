// Package validate treats a generated markdown-like document as
// semi-structured data: headings are parsed once into addressable sections
// and every contract check operates on pre-sliced section text.
package validate

import (
	"regexp"
	"strings"
	"sync"
)

// Section is one heading plus the text span running to the next heading at
// the same or a higher level.
type Section struct {
	Heading string
	Level   int
	Start   int
	End     int
	Body    string
}

// Text returns the heading and body together, for checks that accept a
// mention in either place.
func (s Section) Text() string {
	return s.Heading + "\n" + s.Body
}

var headingLineRE = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.*)$`)

// ParseSections indexes every heading in the document. Spans nest: a
// section's body runs until the next heading of equal or higher rank, so a
// sub-heading's text is contained in its parent's span.
func ParseSections(doc string) []Section {
	matches := headingLineRE.FindAllStringSubmatchIndex(doc, -1)
	sections := make([]Section, 0, len(matches))
	for _, m := range matches {
		level := m[3] - m[2]
		heading := strings.TrimSpace(doc[m[4]:m[5]])
		sections = append(sections, Section{
			Heading: heading,
			Level:   level,
			Start:   m[0],
			End:     len(doc),
		})
	}
	for i := range sections {
		for j := i + 1; j < len(sections); j++ {
			if sections[j].Level <= sections[i].Level {
				sections[i].End = sections[j].Start
				break
			}
		}
		bodyStart := strings.IndexByte(doc[sections[i].Start:sections[i].End], '\n')
		if bodyStart < 0 {
			sections[i].Body = ""
			continue
		}
		sections[i].Body = doc[sections[i].Start+bodyStart+1 : sections[i].End]
	}
	return sections
}

// SubSections returns the sections nested inside parent's span.
func SubSections(sections []Section, parent Section) []Section {
	var out []Section
	for _, s := range sections {
		if s.Start > parent.Start && s.Start < parent.End && s.Level > parent.Level {
			out = append(out, s)
		}
	}
	return out
}

// MatchSection finds the section whose heading carries the identifier. The
// three strategies are ordered fallbacks, not combined signals: an exact
// backquoted token, then the first word after a stripped leading label,
// then a case-insensitive whole-word scan of the heading text.
func MatchSection(sections []Section, id string) (Section, bool) {
	for _, s := range sections {
		if strings.Contains(s.Heading, "`"+id+"`") {
			return s, true
		}
	}
	for _, s := range sections {
		if strings.EqualFold(headingFirstWord(s.Heading), id) {
			return s, true
		}
	}
	re := wholeWord(id)
	for _, s := range sections {
		if re.MatchString(s.Heading) {
			return s, true
		}
	}
	return Section{}, false
}

func headingFirstWord(heading string) string {
	text := heading
	if idx := strings.Index(text, ":"); idx >= 0 && idx < len(text)-1 {
		text = text[idx+1:]
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], "`\"'.,:;()")
}

// ContainsToken reports whether text mentions word as a backquoted token or
// a case-insensitive whole word.
func ContainsToken(text, word string) bool {
	if word == "" {
		return false
	}
	if strings.Contains(text, "`"+word+"`") {
		return true
	}
	return wholeWord(word).MatchString(text)
}

var (
	wordCache   = map[string]*regexp.Regexp{}
	wordCacheMu sync.Mutex
)

func wholeWord(word string) *regexp.Regexp {
	wordCacheMu.Lock()
	defer wordCacheMu.Unlock()
	re, ok := wordCache[word]
	if !ok {
		re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
		wordCache[word] = re
	}
	return re
}
