package expbo

import (
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
)

// UnmarshalExponentialBackOff populates ExponentialBackOff structure parsing strings of format:
// "[InitInterval MaxInterval] *Multiplier ~RandomizationFactor <MaxElapsedTime"
//
// Intervals are in seconds.  Words that are left out keep the value already
// in b.  A MaxElapsedTime of 0 retries forever.
//
// Example: "[0.250 30] *1.5 ~0.33 <7200"
func UnmarshalExponentialBackOff(s string, b *backoff.ExponentialBackOff) error {
	for _, word := range strings.Fields(s) {
		var err error
		switch {
		case strings.HasPrefix(word, "["):
			b.InitialInterval, err = seconds(strings.TrimPrefix(word, "["), "InitInterval")
		case strings.HasSuffix(word, "]"):
			b.MaxInterval, err = seconds(strings.TrimSuffix(word, "]"), "MaxInterval")
		case strings.HasPrefix(word, "*"):
			b.Multiplier, err = number(strings.TrimPrefix(word, "*"), "Multiplier")
		case strings.HasPrefix(word, "~"):
			b.RandomizationFactor, err = number(strings.TrimPrefix(word, "~"), "RandomizationFactor")
		case strings.HasPrefix(word, "<"):
			b.MaxElapsedTime, err = seconds(strings.TrimPrefix(word, "<"), "MaxElapsedTime")
		default:
			err = errors.Errorf(`unexpected word "%s"`, word)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// New returns a backoff described by s, starting from the library defaults.
func New(s string) (*backoff.ExponentialBackOff, error) {
	b := backoff.NewExponentialBackOff()
	if err := UnmarshalExponentialBackOff(s, b); err != nil {
		return nil, err
	}
	if b.InitialInterval <= 0 || b.MaxInterval < b.InitialInterval || b.Multiplier < 1 {
		return nil, errors.Errorf(`backoff "%s" never grows`, s)
	}
	b.Reset()
	return b, nil
}

func number(word, name string) (float64, error) {
	v, err := strconv.ParseFloat(word, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse %s value", name)
	}
	if v < 0 {
		return 0, errors.Errorf("%s must not be negative", name)
	}
	return v, nil
}

func seconds(word, name string) (time.Duration, error) {
	v, err := number(word, name)
	if err != nil {
		return 0, err
	}
	return time.Duration(v * float64(time.Second)), nil
}
