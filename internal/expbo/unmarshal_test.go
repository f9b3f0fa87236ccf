package expbo

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalExponentialBackOff(t *testing.T) {
	require := require.New(t)
	b := &backoff.ExponentialBackOff{}
	require.NoError(UnmarshalExponentialBackOff("[0.25 30] *1.5  ~0.33 <300", b))

	require.Equal(250*time.Millisecond, b.InitialInterval)
	require.Equal(30*time.Second, b.MaxInterval)
	require.InDelta(1.5, b.Multiplier, 1e-8)
	require.InDelta(0.33, b.RandomizationFactor, 1e-8)
	require.Equal(5*time.Minute, b.MaxElapsedTime)
}

func TestUnmarshalKeepsUnsetFields(t *testing.T) {
	require := require.New(t)
	b := backoff.NewExponentialBackOff()
	require.NoError(UnmarshalExponentialBackOff("<0", b))
	require.Equal(time.Duration(0), b.MaxElapsedTime)
	require.Equal(backoff.DefaultInitialInterval, b.InitialInterval)
	require.Equal(backoff.DefaultMultiplier, b.Multiplier)
}

func TestUnmarshalErrors(t *testing.T) {
	for _, s := range []string{"[x 30]", "[1 y]", "*z", "~-1", "<w", "1 30"} {
		err := UnmarshalExponentialBackOff(s, backoff.NewExponentialBackOff())
		require.Error(t, err, s)
	}
}

func TestNew(t *testing.T) {
	require := require.New(t)
	b, err := New("[1 30] *2 ~0.2 <0")
	require.NoError(err)
	require.Equal(time.Second, b.InitialInterval)
	require.Equal(time.Duration(0), b.MaxElapsedTime)
	require.NotEqual(backoff.Stop, b.NextBackOff())

	_, err = New("[5 1]")
	require.Error(err)
	_, err = New("*0.5")
	require.Error(err)
	_, err = New("bogus")
	require.Error(err)
}
