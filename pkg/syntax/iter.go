package syntax

import (
	"sync/atomic"

	"go.uber.org/zap"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// CancellationCheckInterval is how many loop steps HighlightIter takes
// between reads of the cancellation flag.
const CancellationCheckInterval = 100

// InjectionCallback resolves an injection's language name (as named in an
// `#set! injection.language` / `injection.language` capture) to a
// Configuration, or nil if the host has none registered for it.
type InjectionCallback func(languageName string) *Configuration

// HighlightEvent is one item of a HighlightIter stream.
type HighlightEvent interface{ highlightEvent() }

// Source is emitted for every byte range not covered by a highlight span;
// the union of all emitted Source ranges covers [0, len(source)).
type Source struct{ Start, End uint }

func (Source) highlightEvent() {}

// HighlightStart opens a highlight span.
type HighlightStart struct {
	Highlight    Highlight
	LanguageName string
}

func (HighlightStart) highlightEvent() {}

// HighlightEnd closes the innermost open highlight span.
type HighlightEnd struct{}

func (HighlightEnd) highlightEvent() {}

// Highlighter owns a tree-sitter Parser and a pool of QueryCursors reused
// across highlight runs and across injection layers within a run.
type Highlighter struct {
	parser  *tree_sitter.Parser
	cursors []*tree_sitter.QueryCursor
	logger  *zap.Logger
}

// NewHighlighter builds a Highlighter with its own exclusive Parser. logger
// may be nil.
func NewHighlighter(logger *zap.Logger) *Highlighter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Highlighter{parser: tree_sitter.NewParser(), logger: logger}
}

type lastHighlightRange struct {
	start, end uint
	depth      int
}

// defSlot names one local definition's backfill slot by index, since the
// localScope slice it lives in may be reallocated by later appends; storing
// indices instead of a pointer keeps the backfill valid regardless.
type defSlot struct {
	layer             *layer
	scopeIdx, defIdx  int
}

// HighlightIter is the lazy event stream produced by Highlighter.Highlight.
type HighlightIter struct {
	source       []byte
	languageName string
	byteOffset   uint
	highlighter  *Highlighter
	callback     InjectionCallback
	layers       []*layer
	cancel       *int32
	steps        int
	pending      HighlightEvent
	lastRange    *lastHighlightRange
	done         bool

	pendingReferenceHighlight Highlight
	pendingReferenceNode      *tree_sitter.Range
	pendingDefSlot            *defSlot
	pendingDefNode            *tree_sitter.Range
}

// Highlight begins highlighting source under cfg. cancel, if non-nil, is
// read every CancellationCheckInterval steps; a non-zero value (set via
// atomic.StoreInt32) causes the iterator to yield ErrCancelled and stop.
func (h *Highlighter) Highlight(cfg *Configuration, source []byte, cancel *int32, callback InjectionCallback) (*HighlightIter, error) {
	layers, err := newLayers(source, "", h, callback, cfg, 0, nil)
	if err != nil {
		return nil, err
	}
	it := &HighlightIter{
		source:                    source,
		languageName:              cfg.LanguageName,
		highlighter:               h,
		callback:                  callback,
		layers:                    layers,
		cancel:                    cancel,
		pendingReferenceHighlight: -1,
	}
	it.sortLayers()
	return it, nil
}

// Next advances the iterator. It returns (nil, nil) once the stream is
// exhausted.
func (it *HighlightIter) Next() (HighlightEvent, error) {
	for {
		if it.done {
			return nil, nil
		}

		it.steps++
		if it.cancel != nil && it.steps%CancellationCheckInterval == 0 {
			if atomic.LoadInt32(it.cancel) != 0 {
				it.done = true
				it.pending = nil
				return nil, ErrCancelled
			}
		}

		if it.pending != nil {
			e := it.pending
			it.pending = nil
			return e, nil
		}

		if len(it.layers) == 0 {
			it.done = true
			if it.byteOffset < uint(len(it.source)) {
				ev := Source{Start: it.byteOffset, End: uint(len(it.source))}
				it.byteOffset = uint(len(it.source))
				return ev, nil
			}
			return nil, nil
		}

		lyr := it.layers[0]

		if len(lyr.captures) == 0 {
			if n := len(lyr.highlightEndStack); n > 0 {
				end := lyr.highlightEndStack[n-1]
				lyr.highlightEndStack = lyr.highlightEndStack[:n-1]
				return it.emit(end, HighlightEnd{})
			}
			it.highlighter.pushCursor(lyr.cursor)
			it.layers = it.layers[1:]
			continue
		}

		next := lyr.captures[0]
		nodeRange := next.Match.Captures[next.Index].Node.Range()

		// A pending reference/def-backfill only survives to coalesce with a
		// highlight capture on the very same node (the grounding source
		// keeps these as per-iteration locals discarded at `continue main`;
		// here they are discarded as soon as the stream moves to a
		// different node without a highlight capture claiming them).
		if it.pendingReferenceNode != nil && nodeRange != *it.pendingReferenceNode {
			it.pendingReferenceHighlight = -1
			it.pendingReferenceNode = nil
		}
		if it.pendingDefNode != nil && nodeRange != *it.pendingDefNode {
			it.pendingDefSlot = nil
			it.pendingDefNode = nil
		}

		if n := len(lyr.highlightEndStack); n > 0 {
			end := lyr.highlightEndStack[n-1]
			if end <= nodeRange.StartByte {
				lyr.highlightEndStack = lyr.highlightEndStack[:n-1]
				return it.emit(end, HighlightEnd{})
			}
		}

		match := next
		lyr.captures = lyr.captures[1:]
		capture := match.Match.Captures[match.Index]

		patternIndex := uint64(match.Match.PatternIndex)
		if patternIndex < uint64(lyr.config.localsPatternIndex) {
			it.handleInjection(lyr, match)
			continue
		}

		for len(lyr.scopeStack) > 1 && nodeRange.StartByte > lyr.scopeStack[len(lyr.scopeStack)-1].Range.EndByte {
			lyr.scopeStack = lyr.scopeStack[:len(lyr.scopeStack)-1]
		}

		if patternIndex < uint64(lyr.config.highlightsPatternIndex) {
			it.handleLocal(lyr, nodeRange, capture, match)
			continue
		}

		event, handled := it.handleHighlight(lyr, nodeRange, capture, match)
		if handled {
			return event, nil
		}
	}
}

func (it *HighlightIter) emit(offset uint, event HighlightEvent) (HighlightEvent, error) {
	var result HighlightEvent
	if it.byteOffset < offset {
		result = Source{Start: it.byteOffset, End: offset}
		it.byteOffset = offset
		it.pending = event
	} else {
		result = event
	}
	it.sortLayers()
	return result, nil
}

func (it *HighlightIter) handleInjection(lyr *layer, match queryCapture) {
	languageName, contentNode, includeChildren := injectionForMatch(lyr.config, it.languageName, match.Match, it.source)
	if languageName != "" && contentNode != nil {
		if nextConfig := it.callback(languageName); nextConfig != nil {
			ranges := intersectRanges(lyr.ranges, []tree_sitter.Node{*contentNode}, includeChildren)
			if len(ranges) > 0 {
				newLayers, err := newLayers(it.source, it.languageName, it.highlighter, it.callback, nextConfig, lyr.depth+1, ranges)
				if err == nil {
					for _, nl := range newLayers {
						it.insertLayer(nl)
					}
				}
			}
		} else {
			it.highlighter.logger.Debug("syntax: no injection config for language",
				zap.String("language", languageName), zap.String("parent", it.languageName))
		}
	}
	// Drop every remaining queued capture belonging to this match (emulates
	// noClaps' match.Remove()): a multi-capture injection pattern (e.g.
	// `@injection.content` plus a sibling `@injection.language`) would
	// otherwise re-enter handleInjection on the same match and splice a
	// duplicate child layer for the same region.
	lyr.captures = removeMatchCaptures(lyr.captures, match.Match)
	it.sortLayers()
}

// removeMatchCaptures filters out of captures every entry produced by m,
// compacting in place.
func removeMatchCaptures(captures []queryCapture, m *tree_sitter.QueryMatch) []queryCapture {
	out := captures[:0]
	for _, c := range captures {
		if c.Match != m {
			out = append(out, c)
		}
	}
	return out
}

func (it *HighlightIter) handleLocal(lyr *layer, nodeRange tree_sitter.Range, capture tree_sitter.QueryCapture, match queryCapture) {
	switch int32(capture.Index) {
	case lyr.config.localScopeCaptureIndex:
		scope := localScope{Inherits: true, Range: nodeRange}
		for _, prop := range lyr.config.query.PropertySettings(uint(match.Match.PatternIndex)) {
			if prop.Key == captureLocalScopeInherits {
				scope.Inherits = prop.Value != nil && *prop.Value == "true"
			}
		}
		lyr.scopeStack = append(lyr.scopeStack, scope)
	case lyr.config.localDefCaptureIndex:
		top := len(lyr.scopeStack) - 1
		it.pendingReferenceHighlight = -1
		it.pendingReferenceNode = nil
		valueRange := nodeRange
		for _, c := range match.Match.Captures {
			if int32(c.Index) == lyr.config.localDefValueCaptureIndex {
				valueRange = c.Node.Range()
			}
		}
		if int(nodeRange.EndByte) <= len(it.source) {
			name := string(it.source[nodeRange.StartByte:nodeRange.EndByte])
			lyr.scopeStack[top].LocalDefs = append(lyr.scopeStack[top].LocalDefs, localDef{
				Name: name, Range: nodeRange, ValueRange: valueRange, Highlight: -1,
			})
			it.pendingDefSlot = &defSlot{layer: lyr, scopeIdx: top, defIdx: len(lyr.scopeStack[top].LocalDefs) - 1}
			it.pendingDefNode = &nodeRange
		}
	case lyr.config.localRefCaptureIndex:
		if int(nodeRange.EndByte) > len(it.source) {
			break
		}
		name := string(it.source[nodeRange.StartByte:nodeRange.EndByte])
		for si := len(lyr.scopeStack) - 1; si >= 0; si-- {
			scope := lyr.scopeStack[si]
			var found Highlight = -1
			for di := len(scope.LocalDefs) - 1; di >= 0; di-- {
				def := scope.LocalDefs[di]
				if def.Name == name && nodeRange.StartByte >= def.ValueRange.EndByte {
					found = def.Highlight
					break
				}
			}
			if found != -1 {
				it.pendingReferenceHighlight = found
				it.pendingReferenceNode = &nodeRange
				break
			}
			if !scope.Inherits {
				break
			}
		}
	}
	it.sortLayers()
}

func (it *HighlightIter) handleHighlight(lyr *layer, nodeRange tree_sitter.Range, capture tree_sitter.QueryCapture, match queryCapture) (HighlightEvent, bool) {
	referenceHighlight := it.pendingReferenceHighlight
	defSlot := it.pendingDefSlot
	it.pendingReferenceHighlight = -1
	it.pendingReferenceNode = nil
	it.pendingDefSlot = nil
	it.pendingDefNode = nil

	if it.lastRange != nil && nodeRange.StartByte == it.lastRange.start && nodeRange.EndByte == it.lastRange.end && lyr.depth < it.lastRange.depth {
		it.sortLayers()
		return nil, false
	}

	isDef := defSlot != nil
	isRef := referenceHighlight != -1
	for len(lyr.captures) > 0 {
		nextMatch := lyr.captures[0]
		nextCapture := nextMatch.Match.Captures[nextMatch.Index]
		if !nextCapture.Node.Equals(capture.Node) {
			break
		}
		lyr.captures = lyr.captures[1:]
		if isDef || (isRef && lyr.config.nonLocalVariablePatterns[nextMatch.Match.PatternIndex]) {
			continue
		}
		capture = nextCapture
		match = nextMatch
	}

	current := lyr.config.highlightIndices[capture.Index]

	winner := referenceHighlight
	if winner == -1 {
		winner = current
	}
	if defSlot != nil {
		defSlot.layer.scopeStack[defSlot.scopeIdx].LocalDefs[defSlot.defIdx].Highlight = current
	}
	if winner == -1 {
		it.sortLayers()
		return nil, false
	}

	it.lastRange = &lastHighlightRange{start: nodeRange.StartByte, end: nodeRange.EndByte, depth: lyr.depth}
	lyr.highlightEndStack = append(lyr.highlightEndStack, nodeRange.EndByte)
	event, _ := it.emit(nodeRange.StartByte, HighlightStart{Highlight: winner, LanguageName: lyr.config.LanguageName})
	return event, true
}

func (it *HighlightIter) sortLayers() {
	for len(it.layers) > 1 {
		key := it.layers[0].sortKey()
		if key == nil {
			it.highlighter.pushCursor(it.layers[0].cursor)
			it.layers = it.layers[1:]
			continue
		}
		i := 0
		for i+1 < len(it.layers) {
			nk := it.layers[i+1].sortKey()
			if nk != nil && nk.less(*key) {
				i++
				continue
			}
			break
		}
		if i > 0 {
			head := it.layers[0]
			it.layers = append(it.layers[1:i+1], append([]*layer{head}, it.layers[i+1:]...)...)
		}
		break
	}
}

func (it *HighlightIter) insertLayer(l *layer) {
	key := l.sortKey()
	if key == nil {
		it.layers = append(it.layers, l)
		return
	}
	i := 1
	for i < len(it.layers) {
		ik := it.layers[i].sortKey()
		if ik == nil {
			it.layers = append(it.layers[:i], it.layers[i+1:]...)
			continue
		}
		if key.less(*ik) {
			break
		}
		i++
	}
	it.layers = append(it.layers[:i], append([]*layer{l}, it.layers[i:]...)...)
}

type sortKey struct {
	offset uint
	start  bool
	depth  int
}

// less orders by (offset, !start before start, -depth): ties on byte favor
// ends over starts, and deeper layers sort first so outer highlights wrap
// inner ones.
func (k sortKey) less(other sortKey) bool {
	if k.offset != other.offset {
		return k.offset < other.offset
	}
	if k.start != other.start {
		return !k.start
	}
	return k.depth < other.depth
}

func (l *layer) sortKey() *sortKey {
	depth := -l.depth
	var nextStart *uint
	if len(l.captures) > 0 {
		c := l.captures[0]
		b := c.Match.Captures[c.Index].Node.StartByte()
		nextStart = &b
	}
	var nextEnd *uint
	if n := len(l.highlightEndStack); n > 0 {
		e := l.highlightEndStack[n-1]
		nextEnd = &e
	}
	switch {
	case nextStart != nil && nextEnd != nil:
		if *nextStart < *nextEnd {
			return &sortKey{offset: *nextStart, start: true, depth: depth}
		}
		return &sortKey{offset: *nextEnd, start: false, depth: depth}
	case nextStart != nil:
		return &sortKey{offset: *nextStart, start: true, depth: depth}
	case nextEnd != nil:
		return &sortKey{offset: *nextEnd, start: false, depth: depth}
	default:
		return nil
	}
}
