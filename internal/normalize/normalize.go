// Package normalize canonicalizes lead attributes for matching and dedup.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// Phone canonicalizes an Australian phone number to international form.
// "0412 345 678" -> "+61412345678"; "61412345678" -> "+61412345678".
// Numbers already carrying another country code are kept as-is with a
// leading "+". Empty input stays empty.
func Phone(phone string) string {
	if phone == "" {
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "61") {
		return "+" + digits
	}
	if strings.HasPrefix(digits, "0") {
		return "+61" + digits[1:]
	}
	return "+" + digits
}

// Domain extracts the normalized host from a website URL: scheme and path
// stripped, lowercased, leading "www." removed. Bare hosts without a scheme
// are accepted.
func Domain(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return ""
	}
	host := s
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		host = u.Host
	} else {
		host = strings.SplitN(s, "/", 2)[0]
	}
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

// legalSuffixes lists common legal entity suffixes stripped during name
// normalization. Australian forms first.
var legalSuffixes = []string{
	" PTY LTD", " PTY. LTD.", " PTY LIMITED", " PTY",
	" LTD", " LTD.", " LIMITED",
	" LLC", " L.L.C.",
	" INC", " INC.", " INCORPORATED",
	" CORP", " CORP.", " CORPORATION",
	" CO", " CO.",
	" TRUST", " T/A", " TA",
}

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	deaccent     = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Name standardizes a business name for fuzzy matching: trims, uppercases,
// folds diacritics, strips legal suffixes and punctuation, collapses spaces.
func Name(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(deaccent, name); err == nil {
		name = folded
	}
	name = strings.ToUpper(name)

	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	name = strings.NewReplacer(
		",", "",
		".", "",
		"'", "",
		"\"", "",
		"&", "AND",
		"-", " ",
	).Replace(name)

	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
