package rope

import "sort"

// Transaction is a ChangeSet plus an optional successor Selection.
type Transaction struct {
	changeset *ChangeSet
	selection *Selection
}

// NewTransaction wraps a ChangeSet as a Transaction with no successor
// selection.
func NewTransaction(cs *ChangeSet) *Transaction { return &Transaction{changeset: cs} }

// Changes returns the underlying ChangeSet.
func (t *Transaction) Changes() *ChangeSet { return t.changeset }

// Selection returns the successor Selection, if one was attached.
func (t *Transaction) Selection() (*Selection, bool) {
	return t.selection, t.selection != nil
}

// WithSelection attaches a successor Selection and returns t.
func (t *Transaction) WithSelection(sel *Selection) *Transaction {
	t.selection = sel
	return t
}

// Apply returns the result of applying the ChangeSet to r iff its Len
// matches r's current length; otherwise it returns r unchanged and reports
// failure. r itself is never modified.
func (t *Transaction) Apply(r *Rope) (*Rope, bool) {
	return t.changeset.Apply(r)
}

// Invert produces the Transaction that undoes this one against original.
// The caller is responsible for restoring the pre-transaction Selection
// separately (by keeping a snapshot); Invert does not attach one.
func (t *Transaction) Invert(original *Rope) *Transaction {
	return NewTransaction(t.changeset.Invert(original))
}

// Compose composes this Transaction's ChangeSet with other's, taking
// other's successor Selection if it has one, else keeping this one's.
func (t *Transaction) Compose(other *Transaction) *Transaction {
	composed := t.changeset.Compose(other.changeset)
	nt := NewTransaction(composed)
	if other.selection != nil {
		nt.selection = other.selection
	} else {
		nt.selection = t.selection
	}
	return nt
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool { return changes[i].From < changes[j].From })
}

// Change builds a Transaction from a sorted, non-overlapping set of
// (from, to, opt_text) changes against doc. Out-of-order or overlapping
// input is a programmer error and panics (spec.md §7).
func Change(doc *Rope, changes []Change) *Transaction {
	cs := NewChangeSet(doc.LenChars())
	lastTo := 0
	for _, ch := range changes {
		if ch.From < lastTo || ch.From > ch.To {
			panic("rope: Change: changes out of order or overlapping")
		}
		cs.Retain(ch.From - lastTo)
		if ch.HasText && ch.Text != "" {
			cs.Insert(ch.Text)
		}
		if ch.To > ch.From {
			cs.Delete(ch.To - ch.From)
		}
		lastTo = ch.To
	}
	cs.finalize()
	return NewTransaction(cs)
}

// ChangeIgnoreOverlapping is Change but silently drops any change whose
// From falls before the previous change's To, instead of panicking.
func ChangeIgnoreOverlapping(doc *Rope, changes []Change) *Transaction {
	sortChanges(changes)
	cs := NewChangeSet(doc.LenChars())
	lastTo := 0
	for _, ch := range changes {
		if ch.From < lastTo {
			continue
		}
		cs.Retain(ch.From - lastTo)
		if ch.HasText && ch.Text != "" {
			cs.Insert(ch.Text)
		}
		if ch.To > ch.From {
			cs.Delete(ch.To - ch.From)
		}
		lastTo = ch.To
	}
	cs.finalize()
	return NewTransaction(cs)
}

// Deletion is a half-open char range to delete.
type Deletion struct{ From, To int }

// DeleteRanges builds a Transaction deleting the union of the given
// ranges, merging any that overlap or touch.
func DeleteRanges(doc *Rope, deletions []Deletion) *Transaction {
	sorted := append([]Deletion(nil), deletions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })

	var merged []Deletion
	for _, d := range sorted {
		if len(merged) > 0 && d.From <= merged[len(merged)-1].To {
			if d.To > merged[len(merged)-1].To {
				merged[len(merged)-1].To = d.To
			}
			continue
		}
		merged = append(merged, d)
	}

	cs := NewChangeSet(doc.LenChars())
	lastTo := 0
	for _, d := range merged {
		cs.Retain(d.From - lastTo)
		cs.Delete(d.To - d.From)
		lastTo = d.To
	}
	cs.finalize()
	return NewTransaction(cs)
}

// InsertAt builds a Transaction inserting text at the head of every range
// in sel.
func InsertAt(doc *Rope, sel *Selection, text string) *Transaction {
	changes := make([]Change, 0, sel.Len())
	for _, r := range sel.Iter() {
		h := r.Head
		changes = append(changes, Change{From: h, To: h, Text: text, HasText: true})
	}
	return ChangeIgnoreOverlapping(doc, changes)
}

// ChangeBySelection maps each range of sel through f to produce one
// change per range, then builds a Transaction from the resulting set.
func ChangeBySelection(doc *Rope, sel *Selection, f func(Range) Change) *Transaction {
	changes := make([]Change, 0, sel.Len())
	for _, r := range sel.Iter() {
		changes = append(changes, f(r))
	}
	return Change(doc, changes)
}

// InsertAtEOF builds a Transaction appending text at the end of doc.
func InsertAtEOF(doc *Rope, text string) *Transaction {
	n := doc.LenChars()
	return Change(doc, []Change{{From: n, To: n, Text: text, HasText: true}})
}
