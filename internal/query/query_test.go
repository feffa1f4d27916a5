package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/bdx/internal/schema"
)

func TestParseImplicitAndMatchesExplicit(t *testing.T) {
	a, err := Parse("foo bar")
	require.NoError(t, err)
	b, err := Parse("foo AND bar")
	require.NoError(t, err)
	require.Equal(t, b, a)
}

func TestParseOrFlattensNAry(t *testing.T) {
	n, err := Parse("a OR b OR c")
	require.NoError(t, err)
	or, ok := n.(OrNode)
	require.True(t, ok)
	require.Len(t, or.Children, 3)
}

func TestParseNotBindsTighterThanAnd(t *testing.T) {
	n, err := Parse("NOT a AND b")
	require.NoError(t, err)
	and, ok := n.(AndNode)
	require.True(t, ok)
	require.Len(t, and.Children, 2)
	_, isNot := and.Children[0].(NotNode)
	require.True(t, isNot)
}

func TestParseFieldWithWildcard(t *testing.T) {
	n, err := Parse("name:foo*")
	require.NoError(t, err)
	f, ok := n.(FieldNode)
	require.True(t, ok)
	require.Equal(t, "name", f.Field)
	require.Equal(t, "foo", f.Value)
	require.True(t, f.Wildcard)
}

func TestParseFieldWithMissingValue(t *testing.T) {
	n, err := Parse("name:")
	require.NoError(t, err)
	f, ok := n.(FieldNode)
	require.True(t, ok)
	require.False(t, f.HasValue)
}

func TestParseMatchAll(t *testing.T) {
	n, err := Parse("*:*")
	require.NoError(t, err)
	_, ok := n.(MatchAllNode)
	require.True(t, ok)
}

func TestParseParenGrouping(t *testing.T) {
	n, err := Parse("(a OR b) AND c")
	require.NoError(t, err)
	and, ok := n.(AndNode)
	require.True(t, ok)
	require.Len(t, and.Children, 2)
	_, isOr := and.Children[0].(OrNode)
	require.True(t, isOr)
}

func TestParseUnmatchedParenIsError(t *testing.T) {
	_, err := Parse("(a OR b")
	require.Error(t, err)
}

func TestParseQuotedStringPreservesSpaces(t *testing.T) {
	n, err := Parse(`"hello world"`)
	require.NoError(t, err)
	bare, ok := n.(BareNode)
	require.True(t, ok)
	require.Equal(t, "hello world", bare.Value)
}

func TestCompileUnknownFieldSuggestsClosest(t *testing.T) {
	sch := schema.Default()
	_, err := Compile("naem:foo", sch, DefaultOptions())
	require.Error(t, err)
	require.Contains(t, err.Error(), "did you mean")
}

func TestCompileBareTermAutoWildcard(t *testing.T) {
	sch := schema.Default()
	q, err := Compile("foo", sch, Options{AutoWildcard: true})
	require.NoError(t, err)
	require.NotNil(t, q)
}

func TestCompileTypeField(t *testing.T) {
	sch := schema.Default()
	q, err := Compile("type:FUNC", sch, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, q)
}

func TestCompileIntegerRange(t *testing.T) {
	sch := schema.Default()
	q, err := Compile("address:0x10..0x20", sch, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, q)
}
