package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func containsAll(t *testing.T, got []string, want ...string) {
	t.Helper()
	set := make(map[string]struct{}, len(got))
	for _, g := range got {
		set[g] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			t.Errorf("Tokenize result %v missing expected token %q", got, w)
		}
	}
}

func TestTokenizeSimple(t *testing.T) {
	assert.ElementsMatch(t, []string{"foo"}, Tokenize("foo"))
}

func TestTokenizeUnderscoreSplit(t *testing.T) {
	got := Tokenize("foo_bar")
	containsAll(t, got, "foo", "bar")
}

func TestTokenizeMixedAlnum(t *testing.T) {
	got := Tokenize("_foo123_bar37_")
	containsAll(t, got, "foo", "foo123", "123", "bar", "37", "bar37")
}

func TestTokenizeCamelCase(t *testing.T) {
	got := Tokenize("FooBarCamelCase")
	containsAll(t, got, "Foo", "Bar", "Camel", "Case", "FooBarCamelCase")
}

func TestTokenizeAcronym(t *testing.T) {
	got := Tokenize("LSDigitVALUE")
	containsAll(t, got, "LSD", "Digit", "VALUE", "LSDigitVALUE")
}

func TestTokenizeMangledName(t *testing.T) {
	got := Tokenize("_Z37cxxFunctionReturningStdVectorOfStringB5cxx11v")
	containsAll(t, got, "cxx", "Function", "Returning", "Std", "Vector", "Of", "String", "37", "5", "11")
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Nil(t, Tokenize(""))
}

func TestTokenizeNoDuplicates(t *testing.T) {
	got := Tokenize("foofoo")
	seen := make(map[string]int)
	for _, g := range got {
		seen[g]++
	}
	for tok, count := range seen {
		assert.Equalf(t, 1, count, "token %q appeared %d times", tok, count)
	}
}
