// Package pattern maps dataset selections to the remote query fragments
// and local filename patterns that locate their files, in both directions.
// Everything here is pure string work so it can be tested in isolation.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrUnknownProduct  = errors.New("unknown product")
	ErrUnknownVariable = errors.New("unknown variable")
)

// productCodes maps the short product code used in filenames to the
// long-form product name used in requests and directory paths. The map is
// total for every product the tool handles; anything outside it is an
// error, never a pass-through.
var productCodes = map[string]string{
	"bias_adj":   "bias_adjusted",
	"raw":        "non_bias_adjusted",
	"b1961_1990": "base_period_1961_1990",
	"b1981_2010": "base_period_1981_2010",
	"no-base":    "base_independent",
}

// ExpandProduct translates a short product code to its long-form name.
func ExpandProduct(code string) (string, error) {
	name, ok := productCodes[code]
	if !ok {
		return "", fmt.Errorf("%w code %q", ErrUnknownProduct, code)
	}
	return name, nil
}

// ProductCode is the reverse translation, long-form name to short code.
func ProductCode(name string) (string, error) {
	for code, long := range productCodes {
		if long == name {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w name %q", ErrUnknownProduct, name)
}

// ProductCodes lists the accepted short codes, for CLI help text.
func ProductCodes() []string {
	codes := make([]string, 0, len(productCodes))
	for code := range productCodes {
		codes = append(codes, code)
	}
	return codes
}

// NormalizeModel converts a selection model name to the hyphenated
// upper-case form that appears in filenames and directories.
func NormalizeModel(model string) string {
	return strings.ToUpper(strings.ReplaceAll(model, "_", "-"))
}

// annualIndex reports whether an index family uses the annual-index
// filename layout (variable code fused to the index marker).
func annualIndex(index string) bool {
	return index == "etccdi" || index == "hsi"
}

// Translator resolves filename patterns against the per-index variable
// vocabularies (provider variable name -> filename short code).
type Translator struct {
	vocab map[string]map[string]string
}

func NewTranslator(vocab map[string]map[string]string) *Translator {
	return &Translator{vocab: vocab}
}

// Query builds the filename match pattern and the relative location
// pattern for a selection. Experiment and model may be the "%" wildcard
// (an empty string is treated as a wildcard). The product, when given,
// must be a known long-form name.
func (t *Translator) Query(index, product, tstep, experiment, model string) (fname, location string, err error) {
	if experiment == "" {
		experiment = "%"
	}
	if model == "" {
		model = "%"
	}
	pr := "%"
	prodSegment := "%"
	if product != "" {
		code, err := ProductCode(product)
		if err != nil {
			return "", "", err
		}
		// the filename carries the code hyphenated, the path the long name
		pr = strings.ReplaceAll(code, "_", "-")
		prodSegment = product
	}
	if annualIndex(index) {
		fname = fmt.Sprintf("%%%s_%s_%%_%s_%%_%s_%%_v1-0.nc",
			strings.ToUpper(index), tstep, experiment, pr)
	} else {
		fname = fmt.Sprintf("%%_%s_%s_%s_%s_%%.nc",
			strings.ToUpper(index), tstep, model, experiment)
	}
	location = strings.Join([]string{index, prodSegment, tstep, experiment, model}, "/")
	return fname, location, nil
}

// regexString converts a wildcard filename pattern into a regular
// expression source: %/* wildcards become capture groups and the
// extension dot is escaped.
func regexString(pattern string) string {
	s := strings.ReplaceAll(pattern, "%", "(.*)")
	s = strings.ReplaceAll(s, "*", "(.*)")
	if i := strings.LastIndex(s, "."); i >= 0 {
		s = s[:i] + `\.` + s[i+1:]
	}
	return s
}

// WildcardRegex compiles a wildcard filename pattern for matching against
// catalog filenames.
func WildcardRegex(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(regexString(pattern))
	if err != nil {
		return nil, fmt.Errorf("pattern %q does not compile: %w", pattern, err)
	}
	return re, nil
}

// Matches produces one concrete filename regex per variable from a
// filename match pattern: the leading wildcard is replaced by the
// variable's short code and the model slot by the normalized model name.
// An unknown variable fails the whole selection.
func (t *Translator) Matches(pattern, index, model string, variables []string) ([]string, error) {
	vocab, ok := t.vocab[index]
	if !ok {
		return nil, fmt.Errorf("no variable vocabulary for index %q", index)
	}
	bits := strings.Split(regexString(pattern), "_")
	if len(bits) < 4 {
		return nil, fmt.Errorf("filename pattern %q has too few segments", pattern)
	}
	norm := NormalizeModel(model)
	matches := make([]string, 0, len(variables))
	for _, v := range variables {
		code, ok := vocab[v]
		if !ok {
			return nil, fmt.Errorf("%w %q for index %s", ErrUnknownVariable, v, index)
		}
		head := strings.Replace(bits[0], "(.*)", code, 1)
		parts := append([]string{head, bits[1], norm}, bits[3:]...)
		matches = append(matches, strings.Join(parts, "_"))
	}
	return matches, nil
}
