package utils

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 33.3333, Round(100.0/3, 4))
	assert.Equal(t, 2.1, Round((120+60+30)*0.01, 6))
	assert.Equal(t, -1.3, Round(1.0-2.3000000000000003, 6))
	assert.Equal(t, 0.0002, Round(0.00015, 4))
	assert.True(t, math.IsNaN(Round(math.NaN(), 4)))
}

func TestRetry(t *testing.T) {
	RetryInterval = time.Millisecond
	calls := 0
	err := Retry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	exempt := errors.New("permanent")
	calls = 0
	err = Retry(context.Background(), func() error {
		calls++
		return exempt
	}, exempt)
	assert.ErrorIs(t, err, exempt)
	assert.Equal(t, 1, calls)

	calls = 0
	err = Retry(context.Background(), func() error {
		calls++
		return errors.New("always")
	}, exempt)
	assert.Error(t, err)
	assert.Equal(t, RETRY_LIMIT, calls)
}

func TestMakeCSV(t *testing.T) {
	out, err := MakeCSV([]string{"a", "b"}, [][]string{{"1", "x,y"}})
	assert.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"\n", string(out))
}
