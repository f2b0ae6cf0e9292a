package dht

import (
	"context"

	"github.com/sirupsen/logrus"
)

type outcome uint8

const (
	attemptOK outcome = iota
	attemptRetry
	attemptFatal
)

// attemptResult is the tagged result of one acquisition attempt.
type attemptResult struct {
	outcome outcome
	reading Reading
	err     error
}

func (d *Device) attempt() attemptResult {
	d.stats.attempts.Add(1)
	f, err := d.acquireFrame()
	if err != nil {
		if isTiming(err) {
			d.stats.timeouts.Add(1)
			return attemptResult{outcome: attemptRetry, err: err}
		}
		return attemptResult{outcome: attemptFatal, err: err}
	}
	r, err := d.v.Validate(f)
	if err != nil {
		d.stats.checksumErrors.Add(1)
		return attemptResult{outcome: attemptRetry, err: err}
	}
	if d.opt.RejectImplausible && !d.v.Plausible(r) {
		return attemptResult{outcome: attemptRetry, err: ErrImplausible}
	}
	return attemptResult{outcome: attemptOK, reading: r}
}

// readWithRetry runs up to MaxAttempts acquisitions, sleeping RetryBackoff
// before every attempt after the first. The caller holds d.mu.
//
// ctx is only consulted between attempts; an attempt in progress always runs
// to completion or timeout.
func (d *Device) readWithRetry(ctx context.Context) (Reading, error) {
	for n := 1; n <= d.opt.MaxAttempts; n++ {
		if n > 1 {
			d.clk.Sleep(d.opt.RetryBackoff)
			if err := ctx.Err(); err != nil {
				return Reading{}, err
			}
		}
		res := d.attempt()
		switch res.outcome {
		case attemptOK:
			return res.reading, nil
		case attemptRetry:
			d.log.WithFields(logrus.Fields{"attempt": n, "error": res.err}).Debug("dht: attempt failed")
		case attemptFatal:
			d.stats.failures.Add(1)
			d.log.WithFields(logrus.Fields{"attempt": n, "error": res.err}).Warn("dht: line error")
			return Reading{}, ErrAcquisitionFailed
		}
	}
	d.stats.failures.Add(1)
	d.log.WithField("attempts", d.opt.MaxAttempts).Warn("dht: acquisition failed")
	return Reading{}, ErrAcquisitionFailed
}
