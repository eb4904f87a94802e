package console

import (
	"slices"

	"github.com/flowsilicon/keyconsole/internal/keys"
	"github.com/flowsilicon/keyconsole/internal/remote"
)

// View is a consistent snapshot of everything the controller renders
type View struct {
	// Records are in display order
	Records  []keys.Record
	Selected []string
	Sort     keys.SortState
	Mode     *keys.ModeState
	Stats    *remote.Stats
	Rates    *remote.RateStats
}

// View returns the current display state
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Records:  c.displayedLocked(),
		Selected: c.cache.Selection(),
		Sort:     c.sort,
		Stats:    c.stats,
		Rates:    c.rates,
	}
	if c.mode != nil {
		mode := *c.mode
		mode.IDs = slices.Clone(mode.IDs)
		v.Mode = &mode
	}
	return v
}

// SelectedIDs returns the identifiers the user currently has selected. The
// surface is the source of truth once it has rendered; before that the cache
// flags are used.
func (c *Controller) SelectedIDs() []string {
	if ids, ok := c.surface.SelectedIDs(); ok {
		return ids
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.SelectedIDs()
}

// Toggle flips the selection of one cached key and re-renders. Rows are only
// re-sorted when a sort field is active, otherwise they keep their place. It
// returns the new selection state.
func (c *Controller) Toggle(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected, ok := c.cache.Toggle(id)
	if !ok {
		return false, invalid("Toggle", "key %s is not in the list", keys.MaskKey(id))
	}
	if c.sort.Active() {
		c.renderLocked()
	} else {
		c.redrawLocked()
	}
	return selected, nil
}

// SetSort replaces the sort order and re-renders
func (c *Controller) SetSort(state keys.SortState) {
	if state.Direction != keys.Ascending {
		state.Direction = keys.Descending
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = state
	c.renderLocked()
}

// SortBy sorts by field. Picking the active field again flips the direction;
// a new field starts descending.
func (c *Controller) SortBy(field keys.SortField) keys.SortState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = c.sort.By(field)
	c.renderLocked()
	return c.sort
}
