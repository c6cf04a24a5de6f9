package services

import (
	"context"
	"testing"
	"time"

	"stop-route-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importRows() []domain.ImportRow {
	return []domain.ImportRow{
		{Buyer: "far", Town: "Horgoš", Address: "Far 3"},
		{Buyer: "blank", Town: "Horgoš", Address: ""},
		{Buyer: "mid", Town: "Horgoš", Address: "Mid 1"},
		{Buyer: "lost", Town: "Horgoš", Address: "Unknown 7"},
		{Buyer: "near", Town: "Horgoš", Address: "Near 2"},
	}
}

func TestPlanner_ImportCountsAndOrders(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{})

	rep, err := f.planner.Import(context.Background(), importRows(), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.ImportReport{
		Total:     5,
		Processed: 4,
		Skipped:   1,
		Failed:    1,
		Imported:  3,
	}, rep)

	assert.Equal(t, []string{"Starting point", "near", "mid", "far"}, buyers(f.planner.Stops()))
	assert.Contains(t, f.events.types(), EventStopsImported)

	status := f.planner.ImportStatus()
	assert.False(t, status.Running)
	assert.Equal(t, 5, status.Done)
	assert.Equal(t, rep, status.Report)
	assert.False(t, status.FinishedAt.IsZero())
}

func TestPlanner_ImportAppendsAfterExistingStops(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{})
	f.add(t, "manual", "Far 3")

	_, err := f.planner.Import(context.Background(), importRows()[2:3], ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Starting point", "manual", "mid"}, buyers(f.planner.Stops()))
}

func TestPlanner_ImportReplaceClearsFirst(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{})
	f.add(t, "manual", "Far 3")

	_, err := f.planner.Import(context.Background(), importRows()[2:3], ImportOptions{Replace: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"Starting point", "mid"}, buyers(f.planner.Stops()))
}

func TestPlanner_ImportSeparatesDuplicateCoordinates(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{})
	rows := []domain.ImportRow{
		{Buyer: "one", Town: "Horgoš", Address: "Mid 1"},
		{Buyer: "two", Town: "Horgoš", Address: "Mid 1"},
	}

	rep, err := f.planner.Import(context.Background(), rows, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, rep.Imported)

	stops := f.planner.Stops()[1:]
	require.Len(t, stops, 2)
	assert.NotEqual(t, *stops[0].Coordinates, *stops[1].Coordinates)
}

func TestPlanner_CancelImportKeepsLocatedRows(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{})
	f.geo.onCall = func(n int) {
		if n == 2 {
			assert.True(t, f.planner.CancelImport())
		}
	}

	rep, err := f.planner.Import(context.Background(), importRows(), ImportOptions{Replace: true})
	require.NoError(t, err)

	assert.True(t, rep.Cancelled)
	assert.Equal(t, 2, rep.Processed)
	assert.Equal(t, 2, rep.Imported)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, []string{"Starting point", "mid", "far"}, buyers(f.planner.Stops()))
	assert.False(t, f.planner.CancelImport())
}

func TestPlanner_CancelledImportWithNothingLocatedKeepsStops(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{})
	f.add(t, "manual", "Far 3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := f.planner.Import(ctx, importRows(), ImportOptions{Replace: true})
	require.NoError(t, err)

	assert.True(t, rep.Cancelled)
	assert.Zero(t, rep.Imported)
	assert.Equal(t, []string{"Starting point", "manual"}, buyers(f.planner.Stops()))
}

func TestPlanner_ImportDelayIsCancellable(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{ImportDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	f.geo.onCall = func(n int) {
		if n == 1 {
			time.AfterFunc(50*time.Millisecond, cancel)
		}
	}

	done := make(chan domain.ImportReport, 1)
	go func() {
		rep, err := f.planner.Import(ctx, importRows(), ImportOptions{})
		assert.NoError(t, err)
		done <- rep
	}()

	select {
	case rep := <-done:
		assert.True(t, rep.Cancelled)
		assert.Equal(t, 1, rep.Imported)
	case <-time.After(5 * time.Second):
		t.Fatal("import did not stop while waiting between rows")
	}
}

func TestPlanner_StartImportRunsInBackground(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{ImportDelay: 20 * time.Millisecond})

	require.NoError(t, f.planner.StartImport(context.Background(), importRows(), ImportOptions{}))
	require.ErrorIs(t, f.planner.StartImport(context.Background(), importRows(), ImportOptions{}), ErrImportRunning)

	require.Eventually(t, func() bool {
		return !f.planner.ImportStatus().Running
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 3, f.planner.ImportStatus().Report.Imported)
	assert.Len(t, f.planner.Stops(), 4)
}

func TestPlanner_ImportTrimsAndSkipsBlankFields(t *testing.T) {
	f := newPlannerFixture(t, PlannerOptions{})
	f.geo.towns["Horgoš"] = domain.Coordinates{Lon: 20.0, Lat: 46.1}
	f.add(t, "manual", "Far 3")

	rows := []domain.ImportRow{
		{Buyer: "near", Town: "Horgoš", Address: "Near 2"},
		{Buyer: "blank", Town: "Horgoš", Address: "   "},
		{Buyer: " mid ", Town: " Horgoš ", Address: "\tMid 1 "},
	}

	rep, err := f.planner.Import(context.Background(), rows, ImportOptions{Replace: true})
	require.NoError(t, err)

	assert.Equal(t, domain.ImportReport{
		Total:     3,
		Processed: 2,
		Skipped:   1,
		Imported:  2,
	}, rep)
	assert.Equal(t, []string{"Starting point", "near", "mid"}, buyers(f.planner.Stops()))
	assert.NotContains(t, f.geo.calls, "Horgoš")
	for _, q := range f.geo.calls {
		assert.NotContains(t, q, "   ")
	}
}
