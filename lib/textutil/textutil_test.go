package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"João D'Ávila", "JOAO DAVILA"},
		{"maria  da   silva", "MARIA DA SILVA"},
		{"  Antônio José ", "ANTONIO JOSE"},
		{"Ção-çã", "CAOCA"},
		{"MARIA SILVA", "MARIA SILVA"},
		{"", ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeName(test.input), "input: %q", test.input)
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{"João D'Ávila", "José dos Reis Júnior", "ANA", "éàïõü 123"}
	for _, in := range inputs {
		once := NormalizeName(in)
		require.Equal(t, once, NormalizeName(once))
	}
}

func TestLookupKey(t *testing.T) {
	a := LookupKey("João D'Ávila", "01/02/2000", "Ana Ávila")
	b := LookupKey("JOAO DAVILA", " 01/02/2000", "ANA AVILA")
	require.Equal(t, a, b)
	require.Equal(t, "JOAO DAVILA|01/02/2000|ANA AVILA", a)

	require.NotEqual(t, a, LookupKey("JOAO DAVILA", "02/02/2000", "ANA AVILA"))
}
