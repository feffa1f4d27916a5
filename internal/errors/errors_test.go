package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePerSymbolErrorUnwrap(t *testing.T) {
	cause := errors.New("bad magic")
	err := NewFilePerSymbolError("/obj/a.o", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/obj/a.o")
}

func TestNewMultiErrorFiltersNil(t *testing.T) {
	cause := errors.New("boom")
	err := NewMultiError([]error{nil, cause, nil})
	require.Error(t, err)
	assert.Equal(t, cause.Error(), err.Error())

	assert.Nil(t, NewMultiError([]error{nil, nil}))
}

func TestNewMultiErrorMultiple(t *testing.T) {
	err := NewMultiError([]error{errors.New("a"), errors.New("b")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors")
}

func TestConfigErrorUnwrap(t *testing.T) {
	cause := errors.New("out of range")
	err := NewConfigError("num_processes", "-1", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "num_processes")
}
