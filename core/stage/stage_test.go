package stage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/popsynth/core/stage"
	"github.com/ezoic/popsynth/pkg/errors"
)

func TestTrackerLinearProgression(t *testing.T) {
	tr := stage.NewTracker()
	assert.Equal(t, stage.Pending, tr.Current())

	order := []stage.Stage{
		stage.Sampled, stage.Derived, stage.BaseIncome, stage.MeanRescaled,
		stage.ShapeCorrected, stage.FinalRescaled, stage.Corrupted, stage.Persisted,
	}
	for _, s := range order {
		require.NoError(t, tr.Complete(s), "completing %s", s)
	}

	assert.Equal(t, stage.Persisted, tr.Current())
	hist := tr.History()
	require.Len(t, hist, len(order))
	for i, rec := range hist {
		assert.Equal(t, order[i], rec.Stage)
		assert.GreaterOrEqual(t, rec.Duration.Nanoseconds(), int64(0))
	}
}

func TestTrackerRejectsSkipAndBackward(t *testing.T) {
	tr := stage.NewTracker()

	err := tr.Complete(stage.Derived)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStageOrder))

	require.NoError(t, tr.Complete(stage.Sampled))
	require.NoError(t, tr.Complete(stage.Derived))

	err = tr.Complete(stage.Sampled)
	assert.True(t, errors.Is(err, errors.ErrStageOrder))
	assert.Equal(t, stage.Derived, tr.Current())
}

func TestTrackerRequire(t *testing.T) {
	tr := stage.NewTracker()
	assert.True(t, errors.Is(tr.Require(stage.FinalRescaled), errors.ErrStageOrder))

	for _, s := range []stage.Stage{stage.Sampled, stage.Derived, stage.BaseIncome, stage.MeanRescaled, stage.ShapeCorrected, stage.FinalRescaled} {
		require.NoError(t, tr.Complete(s))
	}
	assert.NoError(t, tr.Require(stage.FinalRescaled))
	assert.NoError(t, tr.Require(stage.Sampled))
	assert.Error(t, tr.Require(stage.Corrupted))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "shape_correct", stage.ShapeCorrected.String())
	assert.Equal(t, "stage(42)", stage.Stage(42).String())
	assert.Equal(t, stage.Persisted, stage.Persisted.Next())
}
