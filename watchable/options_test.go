package watchable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/watchable-go/watchable"
)

func Test_NewWatcher_Defaults(t *testing.T) {
	// act
	w, err := watchable.NewWatcher()

	// assert
	require.NoError(t, err)
	assert.Equal(t, "default", w.Name())
	assert.NotSame(t, watchable.DefaultWatcher(), w)
	assert.Equal(t, "default", watchable.DefaultWatcher().Name())
}

func Test_NewWatcher_WithName(t *testing.T) {
	// act
	w, err := watchable.NewWatcher(watchable.WithName("profiles"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, "profiles", w.Name())
}

func Test_NewWatcher_InvalidOptions(t *testing.T) {
	tests := []struct {
		name    string
		option  watchable.Option
		wantErr error
	}{
		{name: "empty name", option: watchable.WithName(""), wantErr: watchable.ErrEmptyWatcherName},
		{name: "nil equality", option: watchable.WithEquality(nil), wantErr: watchable.ErrNilEqualityFunc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// act
			w, err := watchable.NewWatcher(tt.option)

			// assert
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, w)
		})
	}
}

func Test_NewWatcher_NilCollectors_AreAccepted(t *testing.T) {
	// act
	w, err := watchable.NewWatcher(
		watchable.WithLogger(nil),
		watchable.WithMetrics(nil),
		watchable.WithTracing(nil),
	)
	require.NoError(t, err)

	root, watchErr := w.Watch(map[string]any{"a": 1})
	setErr := root.Set("a", 2)

	// assert
	require.NoError(t, watchErr)
	require.NoError(t, setErr)
	assert.Equal(t, 2, root.Get("a"))
}
