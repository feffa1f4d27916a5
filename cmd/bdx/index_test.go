package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/bdx/internal/config"
)

func TestApplyIndexingOverrides(t *testing.T) {
	opts := config.DefaultIndexingOptions()
	err := applyIndexingOverrides(&opts, []string{
		"num_processes=2",
		"min_symbol_size=4",
		"resolve_relocations=false",
		"use_dwarf_fallback=true",
	})
	require.NoError(t, err)
	require.Equal(t, 2, opts.NumProcesses)
	require.EqualValues(t, 4, opts.MinSymbolSize)
	require.False(t, opts.ResolveRelocations)
	require.True(t, opts.UseDWARFFallback)
}

func TestApplyIndexingOverridesRejectsUnknownKey(t *testing.T) {
	opts := config.DefaultIndexingOptions()
	err := applyIndexingOverrides(&opts, []string{"bogus=1"})
	require.Error(t, err)
}

func TestApplyIndexingOverridesRejectsMissingEquals(t *testing.T) {
	opts := config.DefaultIndexingOptions()
	err := applyIndexingOverrides(&opts, []string{"no-equals-here"})
	require.Error(t, err)
}
