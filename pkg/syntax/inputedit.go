package syntax

import (
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/coreseekdev/coretext/pkg/rope"
)

// pointAt converts a char index in oldText into a tree-sitter Point, using
// the rope's line index for the row and the byte offset within that line
// for the column. \r\n is counted as a single line ending, matching the
// rest of the core's CRLF convention.
func pointAt(oldText *rope.Rope, charPos int) tree_sitter.Point {
	line, err := oldText.CharToLine(charPos)
	if err != nil {
		line = 0
	}
	lineStartChar := oldText.LineToChar(line)
	lineStartByte, _ := oldText.CharToByte(lineStartChar)
	byteOff, _ := oldText.CharToByte(charPos)
	return tree_sitter.Point{Row: uint(line), Column: uint(byteOff - lineStartByte)}
}

// insertedPoint advances from a starting Point by walking the inserted text,
// treating \r\n as a single line ending.
func insertedPoint(start tree_sitter.Point, text string) tree_sitter.Point {
	row, col := start.Row, start.Column
	i := 0
	for i < len(text) {
		switch {
		case text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n':
			row++
			col = 0
			i += 2
		case text[i] == '\n' || text[i] == '\r':
			row++
			col = 0
			i++
		default:
			_, size := utf8.DecodeRuneInString(text[i:])
			col += uint(size)
			i += size
		}
	}
	return tree_sitter.Point{Row: row, Column: col}
}

// GenerateEdits converts a ChangeSet into the tree-sitter InputEdits that
// drive an incremental re-parse, per spec.md §4.4. oldText is the rope
// *before* cs was applied.
func GenerateEdits(oldText *rope.Rope, cs *rope.ChangeSet) []tree_sitter.InputEdit {
	var edits []tree_sitter.InputEdit
	// ChangesIter already fuses an Insert immediately followed by a
	// Delete into one Change carrying both Text and To > From: that is
	// the replacement case spec.md §4.4 asks this translator to fuse.
	for _, ch := range cs.ChangesIter() {
		switch {
		case ch.HasText && ch.To > ch.From:
			edits = append(edits, replacementEdit(oldText, ch.From, ch.To, ch.Text))
		case ch.HasText:
			edits = append(edits, insertEdit(oldText, ch.From, ch.Text))
		case ch.To > ch.From:
			edits = append(edits, deleteEdit(oldText, ch.From, ch.To))
		}
	}

	return edits
}

func insertEdit(oldText *rope.Rope, at int, text string) tree_sitter.InputEdit {
	startByte, _ := oldText.CharToByte(at)
	startPoint := pointAt(oldText, at)
	newEndPoint := insertedPoint(startPoint, text)
	return tree_sitter.InputEdit{
		StartByte:   uint(startByte),
		OldEndByte:  uint(startByte),
		NewEndByte:  uint(startByte + len(text)),
		StartPoint:  startPoint,
		OldEndPoint: startPoint,
		NewEndPoint: newEndPoint,
	}
}

func deleteEdit(oldText *rope.Rope, from, to int) tree_sitter.InputEdit {
	startByte, _ := oldText.CharToByte(from)
	oldEndByte, _ := oldText.CharToByte(to)
	startPoint := pointAt(oldText, from)
	oldEndPoint := pointAt(oldText, to)
	return tree_sitter.InputEdit{
		StartByte:   uint(startByte),
		OldEndByte:  uint(oldEndByte),
		NewEndByte:  uint(startByte),
		StartPoint:  startPoint,
		OldEndPoint: oldEndPoint,
		NewEndPoint: startPoint,
	}
}

func replacementEdit(oldText *rope.Rope, from, to int, text string) tree_sitter.InputEdit {
	startByte, _ := oldText.CharToByte(from)
	oldEndByte, _ := oldText.CharToByte(to)
	startPoint := pointAt(oldText, from)
	oldEndPoint := pointAt(oldText, to)
	newEndPoint := insertedPoint(startPoint, text)
	return tree_sitter.InputEdit{
		StartByte:   uint(startByte),
		OldEndByte:  uint(oldEndByte),
		NewEndByte:  uint(startByte + len(text)),
		StartPoint:  startPoint,
		OldEndPoint: oldEndPoint,
		NewEndPoint: newEndPoint,
	}
}
