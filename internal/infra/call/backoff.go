package call

import (
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// Strategy names a backoff strategy between retry attempts.
type Strategy string

const (
	StrategyNone        Strategy = ""
	StrategyFixed       Strategy = "fixed"
	StrategyExponential Strategy = "exponential"
	StrategyFibonacci   Strategy = "fibonacci"
)

// Backoff configures the wait between attempts. The zero value retries immediately.
type Backoff struct {
	Strategy Strategy      `yaml:"strategy"`
	Base     time.Duration `yaml:"base"`
	Max      time.Duration `yaml:"max"`    // caps each individual wait; 0 = uncapped
	Jitter   time.Duration `yaml:"jitter"` // +/- random jitter added to each wait
}

// FixedBackoff waits d between every attempt.
func FixedBackoff(d time.Duration) Backoff {
	return Backoff{Strategy: StrategyFixed, Base: d}
}

// ExponentialBackoff doubles the wait from base, capped at max.
func ExponentialBackoff(base, max time.Duration) Backoff {
	return Backoff{Strategy: StrategyExponential, Base: base, Max: max}
}

// Validate checks that the backoff can be built.
func (b Backoff) Validate() error {
	switch b.Strategy {
	case StrategyNone, StrategyFixed, StrategyExponential, StrategyFibonacci:
	default:
		return fmt.Errorf("unknown backoff strategy %q", b.Strategy)
	}
	if b.Base < 0 || b.Max < 0 || b.Jitter < 0 {
		return fmt.Errorf("backoff durations must not be negative")
	}
	if b.Strategy != StrategyNone && b.Strategy != StrategyFixed && b.Base == 0 {
		return fmt.Errorf("backoff strategy %q needs a positive base", b.Strategy)
	}
	return nil
}

// build returns a fresh stateful backoff sequence for one Execute call.
func (b Backoff) build() retry.Backoff {
	var next retry.Backoff
	switch b.Strategy {
	case StrategyExponential:
		next = retry.NewExponential(b.Base)
	case StrategyFibonacci:
		next = retry.NewFibonacci(b.Base)
	default:
		if b.Base > 0 {
			next = retry.NewConstant(b.Base)
		} else {
			// go-retry rejects a zero constant.
			next = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
		}
	}
	if b.Jitter > 0 {
		next = retry.WithJitter(b.Jitter, next)
	}
	if b.Max > 0 {
		next = retry.WithCappedDuration(b.Max, next)
	}
	return next
}

// delay applies a server-requested retry-after hint to the computed wait.
func (b Backoff) delay(computed, hint time.Duration) time.Duration {
	if hint <= 0 {
		return computed
	}
	if b.Max > 0 && hint > b.Max {
		return b.Max
	}
	return hint
}
