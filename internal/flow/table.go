package flow

// Table maps canonical keys to Flow records. It never evicts: a capture with
// many distinct 5-tuples grows the table for the whole run, which is a
// stated limitation of the engine. Single-goroutine access only.
type Table struct {
	flows map[Key]*Flow
	order []*Flow // first-seen order, for reporting
}

// NewTable creates an empty flow table.
func NewTable() *Table {
	return &Table{flows: make(map[Key]*Flow)}
}

// LookupOrCreate returns the Flow for key, creating it on first sight. The
// boolean reports whether a new record was created; tick seeds FirstSeen.
func (t *Table) LookupOrCreate(key Key, tick uint64) (*Flow, bool) {
	if f, ok := t.flows[key]; ok {
		return f, false
	}
	f := newFlow(key, tick)
	t.flows[key] = f
	t.order = append(t.order, f)
	return f, true
}

// Len returns the number of flows seen so far.
func (t *Table) Len() int { return len(t.flows) }

// Flows lists all flows in first-seen order.
func (t *Table) Flows() []*Flow { return t.order }
