package syntax

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"go.uber.org/zap"
)

// maxPoint is a sentinel end-of-document point used as the open end of the
// root scope and of a trailing unbounded range.
var maxPoint = tree_sitter.Point{Row: ^uint(0), Column: ^uint(0)}

const maxByte = ^uint(0)

type localDef struct {
	Name       string
	Range      tree_sitter.Range
	ValueRange tree_sitter.Range
	Highlight  Highlight
}

type localScope struct {
	Inherits  bool
	Range     tree_sitter.Range
	LocalDefs []localDef
}

type queryCapture struct {
	Match *tree_sitter.QueryMatch
	Index uint32
}

// layer owns one parsed region of the document: its own Tree, a borrowed
// QueryCursor, and the capture stream already drained into a slice so the
// iterator never needs to hold a live cursor borrow across Go iterations
// (see DESIGN.md's note on the cyclic Tree/Cursor/capture-iterator borrow).
type layer struct {
	tree              *tree_sitter.Tree
	cursor            *tree_sitter.QueryCursor
	config            *Configuration
	highlightEndStack []uint
	scopeStack        []localScope
	captures          []queryCapture
	ranges            []tree_sitter.Range
	depth             int
}

func rootScope() localScope {
	return localScope{
		Inherits: false,
		Range: tree_sitter.Range{
			StartByte:  0,
			StartPoint: tree_sitter.Point{},
			EndByte:    maxByte,
			EndPoint:   maxPoint,
		},
	}
}

type injectionCallback func(languageName string) *Configuration

type highlightQueueItem struct {
	config *Configuration
	depth  int
	ranges []tree_sitter.Range
}

type injectionItem struct {
	languageName    string
	nodes           []tree_sitter.Node
	includeChildren bool
}

// popCursor and pushCursor implement the Highlighter's query-cursor pool:
// cursors are moved into layers on construction and returned to the pool
// when a layer is dropped at end of iteration.
func (h *Highlighter) popCursor() *tree_sitter.QueryCursor {
	if len(h.cursors) == 0 {
		return tree_sitter.NewQueryCursor()
	}
	c := h.cursors[len(h.cursors)-1]
	h.cursors = h.cursors[:len(h.cursors)-1]
	return c
}

func (h *Highlighter) pushCursor(c *tree_sitter.QueryCursor) {
	h.cursors = append(h.cursors, c)
}

// newLayers builds the layer tree rooted at config/ranges: a layer for the
// given config, plus one descendant layer (recursively) for every combined
// injection it resolves. Descendants are processed breadth-first via an
// explicit FIFO queue so sibling combined injections at the same depth are
// constructed in the order they were discovered.
func newLayers(
	source []byte,
	parentName string,
	h *Highlighter,
	callback injectionCallback,
	config *Configuration,
	depth int,
	ranges []tree_sitter.Range,
) ([]*layer, error) {
	var result []*layer
	var queue []highlightQueueItem

	for {
		if err := h.parser.SetIncludedRanges(ranges); err == nil {
			if err := h.parser.SetLanguage(config.Language); err != nil {
				return nil, fmt.Errorf("syntax: setting language %q: %w", config.LanguageName, err)
			}
			tree := h.parser.Parse(source, nil)
			if tree == nil {
				h.logger.Warn("syntax: parse cancelled",
					zap.String("lang", config.LanguageName), zap.Int("depth", depth))
				return nil, errCancelled
			}

			cursor := h.popCursor()

			if config.combinedInjectionsQuery != nil {
				byPattern := make([]injectionItem, int(config.combinedInjectionsQuery.PatternCount()))
				matches := cursor.Matches(config.combinedInjectionsQuery, tree.RootNode(), source)
				for {
					match := matches.Next()
					if match == nil {
						break
					}
					languageName, contentNode, includeChildren := injectionForMatch(config, parentName, match, source)
					if languageName != "" {
						byPattern[match.PatternIndex].languageName = languageName
					}
					if contentNode != nil {
						byPattern[match.PatternIndex].nodes = append(byPattern[match.PatternIndex].nodes, *contentNode)
					}
					byPattern[match.PatternIndex].includeChildren = includeChildren
				}
				for _, inj := range byPattern {
					if inj.languageName == "" || len(inj.nodes) == 0 {
						continue
					}
					nextConfig := callback(inj.languageName)
					if nextConfig == nil {
						continue
					}
					nextRanges := intersectRanges(ranges, inj.nodes, inj.includeChildren)
					if len(nextRanges) == 0 {
						continue
					}
					queue = append(queue, highlightQueueItem{config: nextConfig, depth: depth + 1, ranges: nextRanges})
				}
			}

			captureIter := cursor.Captures(config.query, tree.RootNode(), source)
			var captures []queryCapture
			for {
				m, idx := captureIter.Next()
				if m == nil {
					break
				}
				captures = append(captures, queryCapture{Match: m, Index: idx})
			}

			if len(captures) > 0 {
				result = append(result, &layer{
					tree:       tree,
					cursor:     cursor,
					config:     config,
					scopeStack: []localScope{rootScope()},
					captures:   captures,
					ranges:     ranges,
					depth:      depth,
				})
			} else {
				h.pushCursor(cursor)
			}
		}

		if len(queue) == 0 {
			break
		}
		next := queue[0]
		queue = queue[1:]
		config, depth, ranges = next.config, next.depth, next.ranges
	}

	return result, nil
}

// intersectRanges computes the byte ranges to parse for a child layer: for
// each content node, the node's own range minus its children's ranges
// (unless includeChildren), clipped against parentRanges. Both the
// per-node excluded-range list and the parentRanges walk advance in a
// single pass using preceding/following sentinel ranges.
func intersectRanges(parentRanges []tree_sitter.Range, nodes []tree_sitter.Node, includeChildren bool) []tree_sitter.Range {
	if len(parentRanges) == 0 {
		return nil
	}
	var result []tree_sitter.Range
	parentIdx := 0
	parentRange := parentRanges[0]

	for _, node := range nodes {
		precedingEnd := tree_sitter.Range{EndByte: node.StartByte(), EndPoint: node.StartPosition()}

		var excluded []tree_sitter.Range
		if !includeChildren {
			cursor := node.Walk()
			if cursor.GotoFirstChild() {
				for {
					child := cursor.Node()
					excluded = append(excluded, tree_sitter.Range{
						StartByte: child.StartByte(), StartPoint: child.StartPosition(),
						EndByte: child.EndByte(), EndPoint: child.EndPosition(),
					})
					if !cursor.GotoNextSibling() {
						break
					}
				}
			}
		}
		excluded = append(excluded, tree_sitter.Range{
			StartByte: node.EndByte(), StartPoint: node.EndPosition(),
			EndByte: maxByte, EndPoint: maxPoint,
		})

		cur := precedingEnd
		for _, ex := range excluded {
			r := tree_sitter.Range{
				StartByte: cur.EndByte, StartPoint: cur.EndPoint,
				EndByte: ex.StartByte, EndPoint: ex.StartPoint,
			}
			cur = ex

			if r.EndByte < parentRange.StartByte {
				continue
			}
			for parentRange.StartByte <= r.EndByte {
				if parentRange.EndByte > r.StartByte {
					if r.StartByte < parentRange.StartByte {
						r.StartByte, r.StartPoint = parentRange.StartByte, parentRange.StartPoint
					}
					if parentRange.EndByte < r.EndByte {
						if r.StartByte < parentRange.EndByte {
							result = append(result, tree_sitter.Range{
								StartByte: r.StartByte, StartPoint: r.StartPoint,
								EndByte: parentRange.EndByte, EndPoint: parentRange.EndPoint,
							})
						}
						r.StartByte, r.StartPoint = parentRange.EndByte, parentRange.EndPoint
					} else {
						if r.StartByte < r.EndByte {
							result = append(result, r)
						}
						break
					}
				}
				parentIdx++
				if parentIdx >= len(parentRanges) {
					return result
				}
				parentRange = parentRanges[parentIdx]
			}
		}
	}

	return result
}

// injectionForMatch extracts the injection language name, content node, and
// include-children flag from one combined-injections or per-node injection
// match, honoring the injection.language/-self/-parent/-include-children
// #set! properties as fallbacks.
func injectionForMatch(config *Configuration, parentName string, match *tree_sitter.QueryMatch, source []byte) (string, *tree_sitter.Node, bool) {
	var languageName string
	var contentNode *tree_sitter.Node
	for _, capture := range match.Captures {
		switch int32(capture.Index) {
		case config.injectionLanguageCaptureIndex:
			languageName = capture.Node.Utf8Text(source)
		case config.injectionContentCaptureIndex:
			n := capture.Node
			contentNode = &n
		}
	}

	var includeChildren bool
	for _, prop := range config.query.PropertySettings(uint(match.PatternIndex)) {
		switch prop.Key {
		case captureInjectionLanguage:
			if languageName == "" && prop.Value != nil {
				languageName = *prop.Value
			}
		case captureInjectionSelf:
			if languageName == "" {
				languageName = config.LanguageName
			}
		case captureInjectionParent:
			if languageName == "" {
				languageName = parentName
			}
		case captureInjectionIncludeChildren:
			includeChildren = true
		}
	}

	return languageName, contentNode, includeChildren
}
