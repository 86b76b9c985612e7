package utils_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ged-backend/internal/core/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInPool(t *testing.T) {
	worker := func(_ context.Context, i int) (string, error) {
		if i%4 == 3 {
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return "", fmt.Errorf("error")
		}
		return fmt.Sprintf("%d-%d", i, i), nil
	}

	inputs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	success, errors := 0, 0
	for result := range utils.RunInPool(context.Background(), inputs, worker, 5) {
		if result.Error != nil {
			errors++
		} else {
			assert.Equal(t, fmt.Sprintf("%d-%d", result.Index, result.Index), result.Result)
			success++
		}
	}

	assert.Equal(t, 8, success)
	assert.Equal(t, 2, errors)
}

func TestRunInPoolEmpty(t *testing.T) {
	worker := func(_ context.Context, i int) (int, error) { return i, nil }

	count := 0
	for range utils.RunInPool(context.Background(), nil, worker, 4) {
		count++
	}
	assert.Zero(t, count)
}

func TestMapInPoolKeepsOrder(t *testing.T) {
	inputs := make([]int, 100)
	for i := range inputs {
		inputs[i] = i
	}

	worker := func(_ context.Context, i int) (int, error) {
		time.Sleep(time.Duration(i%3) * time.Millisecond)
		return i * i, nil
	}

	done := 0
	out, err := utils.MapInPool(context.Background(), inputs, worker, 8, func() { done++ })
	require.NoError(t, err)
	assert.Equal(t, 100, done)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestMapInPoolError(t *testing.T) {
	worker := func(_ context.Context, i int) (int, error) {
		if i == 2 {
			return 0, fmt.Errorf("bad input %d", i)
		}
		return i, nil
	}

	_, err := utils.MapInPool(context.Background(), []int{0, 1, 2, 3}, worker, 2, nil)
	assert.ErrorContains(t, err, "bad input 2")
}

func TestMapInPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	worker := func(_ context.Context, i int) (int, error) {
		called = true
		return i, nil
	}

	_, err := utils.MapInPool(ctx, []int{1, 2, 3}, worker, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
