package interrupt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTripSetsShouldQuit(t *testing.T) {
	f := New()
	require.False(t, f.ShouldQuit())
	f.Trip()
	require.True(t, f.ShouldQuit())
}
