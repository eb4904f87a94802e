package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsilicon/keyconsole/internal/keys"
)

func TestToggle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sort       keys.SortState
		toggled    []string
		toggledOff []string
	}{
		{
			name:       "no sort field keeps rows in place",
			sort:       keys.SortState{Field: keys.SortNone, Direction: keys.Descending},
			toggled:    []string{"sk-a", "sk-b", "sk-c"},
			toggledOff: []string{"sk-a", "sk-b", "sk-c"},
		},
		{
			name:       "active sort field pins the selection",
			sort:       keys.SortState{Field: keys.SortBalance, Direction: keys.Ascending},
			toggled:    []string{"sk-c", "sk-a", "sk-b"},
			toggledOff: []string{"sk-a", "sk-b", "sk-c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings := testSettings()
			settings.Sort = tt.sort
			env := newTestEnv(t, WithSettings(settings))
			env.load(t, rec("sk-a", 1), rec("sk-b", 2), rec("sk-c", 3))

			selected, err := env.controller.Toggle("sk-c")
			require.NoError(t, err)
			assert.True(t, selected)
			assert.Equal(t, tt.toggled, env.surface.lastIDs())
			assert.Equal(t, tt.toggled, recordIDs(env.controller.View().Records))
			assert.Equal(t, []string{"sk-c"}, env.surface.lastSelected())

			selected, err = env.controller.Toggle("sk-c")
			require.NoError(t, err)
			assert.False(t, selected)
			assert.Equal(t, tt.toggledOff, env.surface.lastIDs())

			_, err = env.controller.Toggle("sk-missing")
			assert.True(t, IsValidation(err))
		})
	}
}

func TestToggle_NoSortKeepsDisplayOrder(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Sort = keys.SortState{Field: keys.SortNone, Direction: keys.Descending}
	env := newTestEnv(t, WithSettings(settings))
	env.load(t, rec("sk-a", 1), rec("sk-b", 2), rec("sk-c", 3))

	_, err := env.controller.Toggle("sk-c")
	require.NoError(t, err)
	assert.Equal(t, []string{"sk-a", "sk-b", "sk-c"}, env.surface.lastIDs())

	// a refresh pins the selected row
	env.load(t, rec("sk-a", 1), rec("sk-b", 2), rec("sk-c", 3))
	require.Equal(t, []string{"sk-c", "sk-a", "sk-b"}, env.surface.lastIDs())

	_, err = env.controller.Toggle("sk-c")
	require.NoError(t, err)
	assert.Equal(t, []string{"sk-c", "sk-a", "sk-b"}, env.surface.lastIDs())
	assert.Empty(t, env.surface.lastSelected())
}

func TestSelectedIDs_PrefersSurface(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.load(t, rec("sk-a", 1), rec("sk-b", 1))
	_, err := env.controller.Toggle("sk-a")
	require.NoError(t, err)

	assert.Equal(t, []string{"sk-a"}, env.controller.SelectedIDs())

	env.surface.show("sk-b")
	assert.Equal(t, []string{"sk-b"}, env.controller.SelectedIDs())
}

func TestSortBy(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Sort = keys.SortState{Field: keys.SortNone, Direction: keys.Descending}
	env := newTestEnv(t, WithSettings(settings))
	env.load(t,
		keys.Record{ID: "sk-a", Score: 1, RPM: 30},
		keys.Record{ID: "sk-b", Score: 3, RPM: 10},
		keys.Record{ID: "sk-c", Score: 2, RPM: 20},
	)

	tests := []struct {
		field keys.SortField
		want  keys.SortState
		order []string
	}{
		{field: keys.SortScore, want: keys.SortState{Field: keys.SortScore, Direction: keys.Descending}, order: []string{"sk-b", "sk-c", "sk-a"}},
		{field: keys.SortScore, want: keys.SortState{Field: keys.SortScore, Direction: keys.Ascending}, order: []string{"sk-a", "sk-c", "sk-b"}},
		{field: keys.SortRPM, want: keys.SortState{Field: keys.SortRPM, Direction: keys.Descending}, order: []string{"sk-a", "sk-c", "sk-b"}},
		{field: keys.SortNone, want: keys.SortState{Field: keys.SortNone, Direction: keys.Descending}, order: []string{"sk-a", "sk-b", "sk-c"}},
	}

	// each step depends on the previous one
	for _, tt := range tests {
		got := env.controller.SortBy(tt.field)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.order, env.surface.lastIDs())
		assert.Equal(t, tt.order, recordIDs(env.controller.View().Records))
	}
}

func TestSetSort_NormalizesDirection(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.controller.SetSort(keys.SortState{Field: keys.SortBalance})
	assert.Equal(t, keys.SortState{Field: keys.SortBalance, Direction: keys.Descending}, env.controller.View().Sort)
}

func TestDefaultSettings_SortsByScore(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	assert.Equal(t, keys.SortState{Field: keys.SortScore, Direction: keys.Descending}, env.controller.View().Sort)

	env.load(t,
		keys.Record{ID: "sk-a", Score: 1},
		keys.Record{ID: "sk-b", Score: 3},
	)
	assert.Equal(t, []string{"sk-b", "sk-a"}, env.surface.lastIDs())
}

func TestNew_InitialSortFromSettings(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Sort = keys.SortState{Field: keys.SortTPM}
	env := newTestEnv(t, WithSettings(settings))

	assert.Equal(t, keys.SortState{Field: keys.SortTPM, Direction: keys.Descending}, env.controller.View().Sort)
}

func TestView_IsACopy(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.load(t, rec("sk-a", 1))

	view := env.controller.View()
	view.Records[0].Balance = 99
	assert.Equal(t, 1.0, env.controller.View().Records[0].Balance)
}

func TestChoice_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "yes", ChoiceYes.String())
	assert.Equal(t, "no", ChoiceNo.String())
	assert.Equal(t, "cancel", ChoiceCancel.String())
}
