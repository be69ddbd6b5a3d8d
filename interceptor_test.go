package fins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChainInterceptors(t *testing.T) {
	var order []string

	first := func(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
		order = append(order, "first-before")
		result, err := invoker(ctx)
		order = append(order, "first-after")
		return result, err
	}
	second := func(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
		order = append(order, "second-before")
		result, err := invoker(ctx)
		order = append(order, "second-after")
		return result, err
	}

	chained := ChainInterceptors(first, second)
	result, err := chained(context.Background(), &InterceptorInfo{Operation: OpReadWords}, func(ctx context.Context) (interface{}, error) {
		order = append(order, "invoke")
		return []uint16{42}, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, []uint16{42}, result)
	assert.Equal(t, []string{"first-before", "second-before", "invoke", "second-after", "first-after"}, order)
}

func TestChainInterceptorsDegenerate(t *testing.T) {
	// An empty chain means no interceptor at all.
	assert.Nil(t, ChainInterceptors())

	single := func(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
		return invoker(ctx)
	}
	chained := ChainInterceptors(single)
	result, err := chained(context.Background(), &InterceptorInfo{}, func(ctx context.Context) (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestClientInterceptorPlumbing(t *testing.T) {
	tr := newMockTransport()
	c := newMockClient(tr)
	defer c.Close()

	var seen *InterceptorInfo
	c.SetInterceptor(func(ctx context.Context, info *InterceptorInfo, invoker Invoker) (interface{}, error) {
		seen = info
		// Short-circuit without touching the wire.
		return []uint16{7, 8}, nil
	})

	vals, err := c.ReadWords(context.Background(), MemoryAreaDMWord, 100, 2)
	assert.NoError(t, err)
	assert.Equal(t, []uint16{7, 8}, vals)

	assert.NotNil(t, seen)
	assert.Equal(t, OpReadWords, seen.Operation)
	assert.Equal(t, MemoryAreaDMWord, seen.MemoryArea)
	assert.Equal(t, uint16(100), seen.Address)
	assert.Equal(t, uint16(2), seen.Count)

	// Nothing should have been sent.
	assert.Empty(t, tr.sentFrames())
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	interceptor := LoggingInterceptor(zap.NewNop())

	result, err := interceptor(context.Background(), &InterceptorInfo{Operation: OpWriteWords, MemoryArea: MemoryAreaDMWord}, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	assert.NoError(t, err)
	assert.Nil(t, result)

	_, err = interceptor(context.Background(), &InterceptorInfo{Operation: OpReadWords}, func(ctx context.Context) (interface{}, error) {
		return nil, ResponseTimeoutError{Timeout: time.Millisecond, Attempts: 1}
	})
	assert.IsType(t, ResponseTimeoutError{}, err)
}

func TestTracingInterceptor(t *testing.T) {
	type ctxKey string
	interceptor := TracingInterceptor(ctxKey("traceID"), zap.NewNop())

	ctx := context.WithValue(context.Background(), ctxKey("traceID"), "trace-12345")
	invoked := false
	result, err := interceptor(ctx, &InterceptorInfo{Operation: OpReadWords, MemoryArea: MemoryAreaDMWord, Address: 100}, func(ctx context.Context) (interface{}, error) {
		invoked = true
		return []uint16{1}, nil
	})
	assert.NoError(t, err)
	assert.True(t, invoked)
	assert.Equal(t, []uint16{1}, result)

	// No trace ID in context still invokes the operation.
	invoked = false
	_, err = interceptor(context.Background(), &InterceptorInfo{Operation: OpReadWords}, func(ctx context.Context) (interface{}, error) {
		invoked = true
		return nil, nil
	})
	assert.NoError(t, err)
	assert.True(t, invoked)
}

func TestMetricsCollector(t *testing.T) {
	collector := NewMetricsCollector()
	interceptor := collector.Interceptor()
	ctx := context.Background()

	ok := func(ctx context.Context) (interface{}, error) { return nil, nil }
	fail := func(ctx context.Context) (interface{}, error) { return nil, ResponseTimeoutError{} }

	for i := 0; i < 3; i++ {
		_, _ = interceptor(ctx, &InterceptorInfo{Operation: OpReadWords}, ok)
	}
	_, _ = interceptor(ctx, &InterceptorInfo{Operation: OpReadWords}, fail)
	_, _ = interceptor(ctx, &InterceptorInfo{Operation: OpWriteBits}, ok)

	count, errCount, _ := collector.GetStats(OpReadWords)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, int64(1), errCount)

	count, errCount, _ = collector.GetStats(OpWriteBits)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, int64(0), errCount)

	all := collector.GetAllStats()
	assert.Len(t, all, 2)

	collector.Reset()
	count, errCount, _ = collector.GetStats(OpReadWords)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, int64(0), errCount)
}

func TestValidationInterceptorWithLimits(t *testing.T) {
	interceptor := ValidationInterceptorWithLimits(10, 10)
	ctx := context.Background()
	invoked := false
	invoker := func(ctx context.Context) (interface{}, error) {
		invoked = true
		return nil, nil
	}

	tests := []struct {
		name    string
		info    *InterceptorInfo
		wantErr bool
	}{
		{"read ok", &InterceptorInfo{Operation: OpReadWords, Count: 10}, false},
		{"read zero", &InterceptorInfo{Operation: OpReadWords, Count: 0}, true},
		{"read too large", &InterceptorInfo{Operation: OpReadWords, Count: 11}, true},
		{"bit read packed limit", &InterceptorInfo{Operation: OpReadBits, Count: 160}, false},
		{"bit read too large", &InterceptorInfo{Operation: OpReadBits, Count: 161}, true},
		{"write ok", &InterceptorInfo{Operation: OpWriteWords, Data: []uint16{1, 2, 3}}, false},
		{"write empty", &InterceptorInfo{Operation: OpWriteWords, Data: []uint16{}}, true},
		{"write wrong type", &InterceptorInfo{Operation: OpWriteWords, Data: "nope"}, true},
		{"write string ok", &InterceptorInfo{Operation: OpWriteString, Data: "AB12"}, false},
		{"write bits ok", &InterceptorInfo{Operation: OpWriteBits, Data: []bool{true}}, false},
		// Lengths past 65535 must not wrap under the cap when compared.
		{"write wrap rejected", &InterceptorInfo{Operation: OpWriteWords, Data: make([]uint16, 65536+5)}, true},
		{"write bytes wrap rejected", &InterceptorInfo{Operation: OpWriteBytes, Data: make([]byte, 2*(65536+5))}, true},
		{"write bits wrap rejected", &InterceptorInfo{Operation: OpWriteBits, Data: make([]bool, 65536+5)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoked = false
			_, err := interceptor(ctx, tt.info, invoker)
			if tt.wantErr {
				assert.IsType(t, ValidationError{}, err)
				assert.False(t, invoked)
			} else {
				assert.NoError(t, err)
				assert.True(t, invoked)
			}
		})
	}
}

func TestAddressRangeValidator(t *testing.T) {
	validator := AddressRangeValidator(map[byte]struct{ Min, Max uint16 }{
		MemoryAreaDMWord: {Min: 100, Max: 199},
	})
	ctx := context.Background()
	invoker := func(ctx context.Context) (interface{}, error) { return nil, nil }

	_, err := validator(ctx, &InterceptorInfo{Operation: OpReadWords, MemoryArea: MemoryAreaDMWord, Address: 150}, invoker)
	assert.NoError(t, err)

	_, err = validator(ctx, &InterceptorInfo{Operation: OpReadWords, MemoryArea: MemoryAreaDMWord, Address: 99}, invoker)
	assert.IsType(t, ValidationError{}, err)

	_, err = validator(ctx, &InterceptorInfo{Operation: OpReadWords, MemoryArea: MemoryAreaCIOWord, Address: 150}, invoker)
	assert.IsType(t, ValidationError{}, err)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(ValidationError{Reason: "x"}))
	assert.False(t, IsRetryable(FrameFormatError{Reason: "x"}))
	assert.False(t, IsRetryable(EndCodeError{EndCode: 0x0102}))
	assert.False(t, IsRetryable(ClientClosedError{}))
	assert.True(t, IsRetryable(ResponseTimeoutError{}))
	assert.True(t, IsRetryable(errors.New("transport broke")))
}

func TestRetryInterceptor(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		interceptor := RetryInterceptor(3, time.Millisecond)
		attempts := 0
		result, err := interceptor(context.Background(), &InterceptorInfo{Operation: OpReadWords}, func(ctx context.Context) (interface{}, error) {
			attempts++
			if attempts < 3 {
				return nil, ResponseTimeoutError{}
			}
			return []uint16{1}, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []uint16{1}, result)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after budget", func(t *testing.T) {
		interceptor := RetryInterceptor(2, time.Millisecond)
		attempts := 0
		_, err := interceptor(context.Background(), &InterceptorInfo{Operation: OpReadWords}, func(ctx context.Context) (interface{}, error) {
			attempts++
			return nil, ResponseTimeoutError{}
		})
		assert.Error(t, err)
		assert.Equal(t, 3, attempts)
		var timeoutErr ResponseTimeoutError
		assert.True(t, errors.As(err, &timeoutErr))
	})

	t.Run("does not retry deterministic errors", func(t *testing.T) {
		interceptor := RetryInterceptor(3, time.Millisecond)
		attempts := 0
		_, err := interceptor(context.Background(), &InterceptorInfo{Operation: OpReadWords}, func(ctx context.Context) (interface{}, error) {
			attempts++
			return nil, EndCodeError{EndCode: 0x1103}
		})
		assert.IsType(t, EndCodeError{}, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("does not retry after cancellation", func(t *testing.T) {
		interceptor := RetryInterceptor(3, time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		attempts := 0
		_, err := interceptor(ctx, &InterceptorInfo{Operation: OpReadWords}, func(ctx context.Context) (interface{}, error) {
			attempts++
			cancel()
			return nil, ResponseTimeoutError{}
		})
		assert.Error(t, err)
		assert.Equal(t, 1, attempts)
	})
}

func TestRetryInterceptorConditional(t *testing.T) {
	onlyTimeouts := func(err error) bool {
		var timeout ResponseTimeoutError
		return errors.As(err, &timeout)
	}
	interceptor := RetryInterceptorConditional(2, time.Millisecond, onlyTimeouts)

	attempts := 0
	_, err := interceptor(context.Background(), &InterceptorInfo{Operation: OpReadWords}, func(ctx context.Context) (interface{}, error) {
		attempts++
		return nil, errors.New("not a timeout")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryInterceptorWithBackoff(t *testing.T) {
	interceptor := RetryInterceptorWithBackoff(2, time.Millisecond, 4*time.Millisecond)
	attempts := 0
	result, err := interceptor(context.Background(), &InterceptorInfo{Operation: OpWriteWords}, func(ctx context.Context) (interface{}, error) {
		attempts++
		if attempts < 2 {
			return nil, ResponseTimeoutError{}
		}
		return nil, nil
	})
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 2, attempts)
}
