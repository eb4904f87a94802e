package console

import (
	"context"
	"fmt"

	"github.com/flowsilicon/keyconsole/internal/keys"
)

// IntentKind names an action requested by the presentation surface
type IntentKind string

const (
	IntentToggle    IntentKind = "toggle"
	IntentDelete    IntentKind = "delete"
	IntentEnable    IntentKind = "enable"
	IntentDisable   IntentKind = "disable"
	IntentCheck     IntentKind = "check"
	IntentSortBy    IntentKind = "sort-by"
	IntentSetSort   IntentKind = "set-sort"
	IntentApplyMode IntentKind = "apply-mode"
	IntentRefresh   IntentKind = "refresh"
)

// Intent is one user action emitted by the surface. Only the fields relevant
// to Kind are read.
type Intent struct {
	Kind IntentKind

	// ID is the target key of toggle, delete, enable, disable and check
	ID string

	// Field is the column picked by sort-by
	Field keys.SortField

	// Sort is the full order set by set-sort
	Sort keys.SortState

	// Mode and IDs are the arguments of apply-mode. Nil IDs means the
	// current selection.
	Mode keys.Mode
	IDs  []string
}

// Dispatch performs the action described by intent
func (c *Controller) Dispatch(ctx context.Context, intent Intent) error {
	switch intent.Kind {
	case IntentToggle:
		_, err := c.Toggle(intent.ID)
		return err
	case IntentDelete:
		return c.DeleteKey(ctx, intent.ID)
	case IntentEnable:
		return c.EnableKey(ctx, intent.ID)
	case IntentDisable:
		return c.DisableKey(ctx, intent.ID)
	case IntentCheck:
		_, err := c.CheckKey(ctx, intent.ID)
		return err
	case IntentSortBy:
		c.SortBy(intent.Field)
		return nil
	case IntentSetSort:
		c.SetSort(intent.Sort)
		return nil
	case IntentApplyMode:
		ids := intent.IDs
		if ids == nil {
			ids = c.SelectedIDs()
		}
		return c.ApplyMode(ctx, intent.Mode, ids)
	case IntentRefresh:
		return c.Refresh(ctx)
	default:
		return fmt.Errorf("unknown intent %q", intent.Kind)
	}
}
