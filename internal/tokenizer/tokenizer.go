// Package tokenizer implements the symbol-name tokenizer: the
// multi-token expansion of a (possibly mangled) symbol name so
// substring, camel-case, and acronym queries match it (spec §4.4).
//
// The six rules below are the complete, closed rule set: no secondary
// substring fragments beyond what they produce are generated (spec §9
// open question, resolved in SPEC_FULL.md).
package tokenizer

import "regexp"

var (
	alphaRun  = regexp.MustCompile(`[A-Za-z]{2,}`)
	camelWord = regexp.MustCompile(`[A-Z][a-z]+`)
	acronym   = regexp.MustCompile(`[A-Z]{2,}`)
	numberRun = regexp.MustCompile(`[0-9]+`)
	alnumTail = regexp.MustCompile(`[a-zA-Z]+[0-9]+`)
)

// Tokenize produces the deduplicated set of tokens for a raw symbol
// name, applying rules 1-6 from spec §4.4 in order. Tokens preserve
// the case of the matched substring; case-folding for indexing is the
// caller's responsibility (the name field lower-cases on insert).
func Tokenize(name string) []string {
	if name == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(tok string) {
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	// Rule 1: the raw value itself.
	add(name)

	// Rule 2: maximal alphabetic runs of length >= 2.
	alphaRuns := alphaRun.FindAllString(name, -1)
	for _, run := range alphaRuns {
		add(run)
	}

	// Rule 3: camel-case splits within each alphabetic run.
	for _, run := range alphaRuns {
		for _, word := range camelWord.FindAllString(run, -1) {
			add(word)
		}
	}

	// Rule 4: uppercase acronym runs.
	for _, run := range alphaRuns {
		for _, word := range acronym.FindAllString(run, -1) {
			add(word)
		}
	}

	// Rule 5: numeric runs.
	for _, num := range numberRun.FindAllString(name, -1) {
		add(num)
	}

	// Rule 6: mixed alphanumeric suffix runs, e.g. "bar37".
	for _, mix := range alnumTail.FindAllString(name, -1) {
		add(mix)
	}

	return out
}
