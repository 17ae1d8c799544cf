// Package syntax implements tree-sitter-backed incremental parsing and
// scope-aware syntax highlighting over a layered injection tree.
package syntax

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"go.uber.org/zap"
)

const (
	captureInjectionCombined        = "injection.combined"
	captureInjectionLanguage        = "injection.language"
	captureInjectionSelf            = "injection.self"
	captureInjectionParent          = "injection.parent"
	captureInjectionIncludeChildren = "injection.include-children"
	captureLocal                    = "local"
	captureLocalScopeInherits       = "local.scope-inherits"
)

// noCapture is the sentinel for an absent optional capture index.
const noCapture = -1

// Highlight is an index into the recognized-scope-name table passed to
// Configure.
type Highlight int32

// Configuration is an immutable, query-compiled description of how to
// highlight one tree-sitter language, including its injection and locals
// behavior. It is safe to share by reference across goroutines once built.
type Configuration struct {
	Language     *tree_sitter.Language
	LanguageName string

	query                   *tree_sitter.Query
	combinedInjectionsQuery *tree_sitter.Query

	localsPatternIndex     uint32
	highlightsPatternIndex uint32

	highlightIndices         []Highlight
	nonLocalVariablePatterns []bool

	injectionContentCaptureIndex  int32
	injectionLanguageCaptureIndex int32
	localScopeCaptureIndex        int32
	localDefCaptureIndex          int32
	localDefValueCaptureIndex     int32
	localRefCaptureIndex          int32
}

// NewConfiguration compiles highlightsQuery/injectionQuery/localsQuery into
// one combined query (in that concatenation order: injections, then locals,
// then highlights) and classifies every resulting pattern.
func NewConfiguration(language *tree_sitter.Language, languageName string, highlightsQuery, injectionQuery, localsQuery []byte) (*Configuration, error) {
	querySource := append([]byte(nil), injectionQuery...)
	localsQueryOffset := uint(len(querySource))
	querySource = append(querySource, localsQuery...)
	highlightsQueryOffset := uint(len(querySource))
	querySource = append(querySource, highlightsQuery...)

	query, qerr := tree_sitter.NewQuery(language, string(querySource))
	if qerr != nil {
		zap.L().Error("syntax: compiling combined query",
			zap.String("lang", languageName), zap.String("msg", qerr.Message), zap.Any("offset", qerr.Offset))
		return nil, fmt.Errorf("syntax: compiling combined query: %s (offset %d)", qerr.Message, qerr.Offset)
	}

	var localsPatternIndex, highlightsPatternIndex uint32
	for i := uint32(0); i < uint32(query.PatternCount()); i++ {
		offset := query.StartByteForPattern(uint(i))
		if offset < highlightsQueryOffset {
			highlightsPatternIndex++
		}
		if offset < localsQueryOffset {
			localsPatternIndex++
		}
	}

	combinedInjectionsQuery, cerr := tree_sitter.NewQuery(language, string(injectionQuery))
	if cerr != nil {
		zap.L().Error("syntax: compiling combined-injections query",
			zap.String("lang", languageName), zap.String("msg", cerr.Message), zap.Any("offset", cerr.Offset))
		return nil, fmt.Errorf("syntax: compiling combined-injections query: %s (offset %d)", cerr.Message, cerr.Offset)
	}
	var hasCombinedQueries bool
	for i := uint32(0); i < localsPatternIndex; i++ {
		isCombined := false
		for _, setting := range combinedInjectionsQuery.PropertySettings(uint(i)) {
			if setting.Key == captureInjectionCombined {
				isCombined = true
				break
			}
		}
		if isCombined {
			hasCombinedQueries = true
			query.DisablePattern(uint(i))
		} else {
			combinedInjectionsQuery.DisablePattern(uint(i))
		}
	}
	if !hasCombinedQueries {
		combinedInjectionsQuery = nil
	}

	nonLocalVariablePatterns := make([]bool, int(query.PatternCount()))
	for i := range nonLocalVariablePatterns {
		for _, predicate := range query.PropertyPredicates(uint(i)) {
			if !predicate.Positive && predicate.Property.Key == captureLocal {
				nonLocalVariablePatterns[i] = true
				break
			}
		}
	}

	c := &Configuration{
		Language:                      language,
		LanguageName:                  languageName,
		query:                         query,
		combinedInjectionsQuery:       combinedInjectionsQuery,
		localsPatternIndex:            localsPatternIndex,
		highlightsPatternIndex:        highlightsPatternIndex,
		nonLocalVariablePatterns:      nonLocalVariablePatterns,
		injectionContentCaptureIndex:  noCapture,
		injectionLanguageCaptureIndex: noCapture,
		localScopeCaptureIndex:        noCapture,
		localDefCaptureIndex:          noCapture,
		localDefValueCaptureIndex:     noCapture,
		localRefCaptureIndex:          noCapture,
	}

	for i, name := range query.CaptureNames() {
		switch name {
		case "injection.content":
			c.injectionContentCaptureIndex = int32(i)
		case "injection.language":
			c.injectionLanguageCaptureIndex = int32(i)
		case "local.definition":
			c.localDefCaptureIndex = int32(i)
		case "local.definition-value":
			c.localDefValueCaptureIndex = int32(i)
		case "local.reference":
			c.localRefCaptureIndex = int32(i)
		case "local.scope":
			c.localScopeCaptureIndex = int32(i)
		}
	}

	c.highlightIndices = make([]Highlight, len(query.CaptureNames()))
	for i := range c.highlightIndices {
		c.highlightIndices[i] = -1
	}
	return c, nil
}

// Names returns the capture names used in the configuration's query.
func (c *Configuration) Names() []string { return c.query.CaptureNames() }

// Configure fills HighlightIndices: for every capture name in the query,
// finds the longest dot-separated prefix of that name present verbatim in
// recognizedNames, truncating one segment at a time from the right until a
// match is found or the name is exhausted.
func (c *Configuration) Configure(recognizedNames []string) {
	indices := make([]Highlight, len(c.query.CaptureNames()))
	for i := range indices {
		indices[i] = -1
	}
	for i, captureName := range c.query.CaptureNames() {
		probe := captureName
		for {
			if j := indexOf(recognizedNames, probe); j != -1 {
				indices[i] = Highlight(j)
				break
			}
			lastDot := strings.LastIndex(probe, ".")
			if lastDot == -1 {
				break
			}
			probe = probe[:lastDot]
		}
	}
	c.highlightIndices = indices
}

func indexOf(names []string, target string) int {
	for i, n := range names {
		if n == target {
			return i
		}
	}
	return -1
}
