package engine

// Advance moves the selection to the next tracked group in ascending pid
// order, or descending when reverse is set, wrapping at the end. With no
// valid selection the first group in that order is selected. Nothing is
// selected while the table is empty.
func (e *Engine) Advance(reverse bool) {
	if _, ok := e.groups[e.selected]; !ok {
		e.selected = 0
	}
	ids := e.ids(reverse)
	if len(ids) == 0 {
		return
	}
	if e.selected == 0 {
		e.selected = ids[0]
		return
	}
	for i, id := range ids {
		if id == e.selected {
			e.selected = ids[(i+1)%len(ids)]
			return
		}
	}
}
