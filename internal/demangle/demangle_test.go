package demangle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDemangleUnavailableBinaryReturnsInputUnchanged(t *testing.T) {
	d := New("bdx-cxxfilt-does-not-exist")
	require.False(t, d.Available())
	require.Equal(t, "_Z3foov", d.Demangle("_Z3foov"))
}

func TestDemangleAllEmptyInput(t *testing.T) {
	d := New("")
	out, err := d.DemangleAll(nil)
	require.NoError(t, err)
	require.Nil(t, out)
}
