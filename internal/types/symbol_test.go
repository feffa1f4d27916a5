package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAndDistinguishesIdentity(t *testing.T) {
	a := Symbol{Path: "/bin/a.o", Name: "foo", Address: 0x10, Section: ".text"}
	b := a

	require.Equal(t, a.Key(), b.Key())

	b.Address = 0x20
	require.NotEqual(t, a.Key(), b.Key())
}

func TestPlaceholderIsPlaceholder(t *testing.T) {
	p := Placeholder("/bin/a.o", time.Time{})
	require.True(t, p.IsPlaceholder())

	s := Symbol{Name: "foo", Size: 1}
	require.False(t, s.IsPlaceholder())
}
