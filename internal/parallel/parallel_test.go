package parallel

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestForEach(t *testing.T) {
	var counter int64
	n := 200

	err := ForEach(context.Background(), n, DefaultConfig(), func(_ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(n), counter)
}

func TestForEach_Sequential(t *testing.T) {
	seen := make([]bool, 50)

	err := ForEach(context.Background(), len(seen), Config{Workers: 1}, func(i int) error {
		seen[i] = true
		return nil
	})

	require.NoError(t, err)
	for i, ok := range seen {
		assert.True(t, ok, "job %d never ran", i)
	}
}

func TestForEach_ErrorOrder(t *testing.T) {
	fail := map[int]bool{3: true, 7: true}

	err := ForEach(context.Background(), 10, DefaultConfig(), func(i int) error {
		if fail[i] {
			return errors.Errorf("job %d failed", i)
		}
		return nil
	})

	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.EqualError(t, errs[0], "job 3 failed")
	assert.EqualError(t, errs[1], "job 7 failed")
}

func TestForEach_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var counter int64
	err := ForEach(ctx, 100, Config{Workers: 2}, func(_ int) error {
		atomic.AddInt64(&counter, 1)
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForEach_Empty(t *testing.T) {
	err := ForEach(context.Background(), 0, DefaultConfig(), func(_ int) error {
		t.Fatal("should not run")
		return nil
	})
	require.NoError(t, err)
}
