package snippet

import (
	"github.com/dlclark/regexp2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/coreseekdev/coretext/pkg/rope"
)

// TransactionFromSnippet parses src as a snippet template and expands it
// against doc/sel into a Transaction, per spec.md §4.8/§6. If Parse reports
// an error, the result is a Transaction with an empty ChangeSet, not an
// error. Parse itself degrades malformed constructs (such as an
// unterminated placeholder) to literal text, so such templates insert
// their source characters.
func TransactionFromSnippet(doc *rope.Rope, sel *rope.Selection, src string) *rope.Transaction {
	items, err := Parse(src)
	if err != nil {
		return rope.Change(doc, nil)
	}

	g := &generator{doc: doc, sel: sel}
	cur := sel.Primary().Head
	g.cursor = cur
	for _, item := range items {
		g.generate(item, cur)
	}
	ranges := append(g.ranges, rope.Point(g.cursor))

	return rope.Change(doc, g.changes).WithSelection(rope.NewSelectionWithPrimary(ranges, 0))
}

// generator walks a parsed snippet tree, accumulating the Changes needed
// to insert its expanded text and the tab-stop Ranges it contributes to
// the successor Selection. All top-level changes are emitted at the same
// (from, from) point (the primary selection's head before expansion
// started); ChangeSet's normal-form builder concatenates consecutive
// inserts at that point in generation order, so they still end up
// sequential in the final document.
type generator struct {
	doc     *rope.Rope
	sel     *rope.Selection
	changes []rope.Change
	ranges  []rope.Range
	cursor  int
}

func (g *generator) emitText(at int, text string) {
	if text == "" {
		return
	}
	g.changes = append(g.changes, rope.Change{From: at, To: at, Text: text, HasText: true})
	g.cursor += charCount(text)
}

func (g *generator) generate(item Item, at int) {
	switch item.Kind {
	case ItemText:
		g.emitText(at, item.Text)
	case ItemChoice:
		// Choice emits no text; selecting among options is a host UI
		// concern (spec.md §4.8).
	case ItemTabStop:
		g.ranges = append(g.ranges, rope.Point(g.cursor))
	case ItemPlaceholder:
		for _, child := range item.Body {
			g.generate(child, at)
		}
	case ItemVariable:
		g.generateVariable(item, at)
	case ItemTransform:
		// Only reachable if malformed input put a Transform at the top
		// level; the grammar only ever nests it inside a Variable's body.
		// spec.md §4.8: "Transform outside a Variable is ill-formed and
		// rejected" — reject silently here by contributing nothing.
	}
}

func (g *generator) generateVariable(item Item, at int) {
	resolved := g.resolveVariable(item.Name)

	var transform *Item
	var defaultBody []Item
	for i := range item.Body {
		if item.Body[i].Kind == ItemTransform {
			transform = &item.Body[i]
		} else {
			defaultBody = append(defaultBody, item.Body[i])
		}
	}

	switch {
	case transform != nil:
		g.emitText(at, applyTransform(*transform, resolved))
	case len(defaultBody) > 0 && !knownVariable(item.Name):
		for _, child := range defaultBody {
			g.generate(child, at)
		}
	default:
		g.emitText(at, resolved)
	}
}

// knownVariable reports whether name is one this core resolves itself
// (currently only TM_SELECTED_TEXT); unrecognised variables fall back to
// their ${name:default} body when one is present.
func knownVariable(name string) bool {
	return name == "TM_SELECTED_TEXT"
}

func (g *generator) resolveVariable(name string) string {
	switch name {
	case "TM_SELECTED_TEXT":
		frag, _ := g.sel.Primary().Slice(g.doc)
		return frag
	default:
		return name
	}
}

func charCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// applyTransform runs a parsed regex transform against input and builds
// its replacement text from the matched capture groups and format items,
// per spec.md §4.8's transform grammar.
func applyTransform(transform Item, input string) string {
	match, err := transform.Regex.FindStringMatch(input)
	if err != nil || match == nil {
		return ""
	}

	var out string
	for _, fi := range transform.FormatItems {
		switch fi.Kind {
		case FormatLiteral:
			out += fi.Literal
		case FormatCaseOp:
			group := groupText(match, fi.Group)
			out += applyCaseOp(fi.CaseOp, group)
		case FormatIfElse:
			if groupMatched(match, fi.Group) {
				out += fi.IfStr
			} else {
				out += fi.ElseStr
			}
		}
	}
	if len(transform.FormatItems) == 0 {
		out = match.String()
	}
	return out
}

func groupMatched(match *regexp2.Match, group int) bool {
	g := match.GroupByNumber(group)
	return g != nil && len(g.Captures) > 0
}

func groupText(match *regexp2.Match, group int) string {
	g := match.GroupByNumber(group)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

func applyCaseOp(op CaseOp, s string) string {
	switch op {
	case CaseUpcase:
		return cases.Upper(language.Und).String(s)
	case CaseDowncase:
		return cases.Lower(language.Und).String(s)
	case CaseCapitalize:
		return cases.Title(language.Und, cases.NoLower).String(s)
	default:
		return s
	}
}
