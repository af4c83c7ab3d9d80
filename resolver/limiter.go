package resolver

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// LimiterReader throttles reads against a shared byte-per-second limiter
// so cache warming never starves caller-critical fetches.
type LimiterReader struct {
	reader  io.Reader
	limiter *rate.Limiter
}

func NewLimiterReader(reader io.Reader, limiter *rate.Limiter) *LimiterReader {
	return &LimiterReader{
		reader:  reader,
		limiter: limiter,
	}
}

func NewBandwidthLimiter(bytesPerSecond int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
}

func (lr *LimiterReader) Read(p []byte) (int, error) {
	// Chunks must stay within the limiter's burst, or WaitN can never grant them
	chunk := 1024
	if burst := lr.limiter.Burst(); burst > 0 && burst < chunk {
		chunk = burst
	}
	if len(p) > chunk {
		p = p[:chunk]
	}

	n, err := lr.reader.Read(p)
	if n > 0 {
		if werr := lr.limiter.WaitN(context.Background(), n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
