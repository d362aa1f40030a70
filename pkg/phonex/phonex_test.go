package phonex

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"+79991234567", "+79991234567"},
		{"79991234567", "+79991234567"},
		{"8 (999) 123-45-67", "+79991234567"},
		{"+7 999 123 45 67", "+79991234567"},
		{"+1 (555) 000-1234", "+15550001234"},
		{"00 44 20 7946 0958", "+442079460958"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeIsStable(t *testing.T) {
	t.Parallel()

	once, err := Normalize("8 (999) 123-45-67")
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestNormalizeRejectsUnusable(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "abc", "+", "()- "} {
		_, err := Normalize(in)
		require.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestDigits(t *testing.T) {
	t.Parallel()

	require.Equal(t, "79991234567", Digits("+7 (999) 123-45-67"))
	require.Equal(t, "", Digits("no digits"))
}
