package validate

import (
	"strings"
	"testing"
)

const sectionDoc = `# Title

intro text

## Operations

### create_item POST /items

body of create_item

### Operation: list_items

body of list_items

## Schemas

### ItemOut

fields here
`

func TestParseSections(t *testing.T) {
	sections := ParseSections(sectionDoc)
	if len(sections) != 6 {
		t.Fatalf("got %d sections", len(sections))
	}
	if sections[0].Heading != "Title" || sections[0].Level != 1 {
		t.Fatalf("got %+v", sections[0])
	}
	// a level-1 span runs to the end of the document
	if sections[0].End != len(sectionDoc) {
		t.Fatalf("title span ends at %d, want %d", sections[0].End, len(sectionDoc))
	}
	ops := sections[1]
	if ops.Heading != "Operations" || ops.Level != 2 {
		t.Fatalf("got %+v", ops)
	}
	// the Operations span stops at the next level-2 heading
	if ops.End != sections[4].Start {
		t.Fatalf("operations span ends at %d, want %d", ops.End, sections[4].Start)
	}
}

func TestSectionBodies(t *testing.T) {
	sections := ParseSections(sectionDoc)
	create := sections[2]
	if create.Heading != "create_item POST /items" {
		t.Fatalf("got heading %q", create.Heading)
	}
	if want := "body of create_item"; !strings.Contains(create.Body, want) {
		t.Fatalf("body %q does not contain %q", create.Body, want)
	}
	if strings.Contains(create.Body, "body of list_items") {
		t.Fatalf("sibling body leaked into create_item's span")
	}
}

func TestSubSections(t *testing.T) {
	sections := ParseSections(sectionDoc)
	ops := sections[1]
	subs := SubSections(sections, ops)
	if len(subs) != 2 {
		t.Fatalf("got %d sub-sections", len(subs))
	}
	if subs[0].Heading != "create_item POST /items" {
		t.Fatalf("got %q", subs[0].Heading)
	}
}

func TestMatchSectionBackquoted(t *testing.T) {
	doc := "## The `create_item` call\n\n## create_item extras\n"
	sections := ParseSections(doc)
	s, ok := MatchSection(sections, "create_item")
	if !ok {
		t.Fatalf("no match")
	}
	if s.Heading != "The `create_item` call" {
		t.Fatalf("backquoted match must win, got %q", s.Heading)
	}
}

func TestMatchSectionFirstWordAfterLabel(t *testing.T) {
	sections := ParseSections(sectionDoc)
	s, ok := MatchSection(sections, "list_items")
	if !ok {
		t.Fatalf("no match")
	}
	if s.Heading != "Operation: list_items" {
		t.Fatalf("got %q", s.Heading)
	}
}

func TestMatchSectionWholeWord(t *testing.T) {
	doc := "## All about ItemOut objects\n"
	sections := ParseSections(doc)
	if _, ok := MatchSection(sections, "itemout"); !ok {
		t.Fatalf("whole-word matching must be case-insensitive")
	}
	if _, ok := MatchSection(sections, "Item"); ok {
		t.Fatalf("Item must not match inside ItemOut")
	}
}

func TestMatchSectionMiss(t *testing.T) {
	sections := ParseSections(sectionDoc)
	if _, ok := MatchSection(sections, "delete_item"); ok {
		t.Fatalf("unexpected match")
	}
}

func TestContainsToken(t *testing.T) {
	if !ContainsToken("pass the `limit` parameter", "limit") {
		t.Errorf("backquoted token missed")
	}
	if !ContainsToken("pass the LIMIT parameter", "limit") {
		t.Errorf("whole-word match must be case-insensitive")
	}
	if ContainsToken("unlimited requests", "limit") {
		t.Errorf("substring must not match")
	}
	if ContainsToken("anything", "") {
		t.Errorf("empty word never matches")
	}
}
