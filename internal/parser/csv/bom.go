package csv

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// StripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func StripHeaderBOM(headers []string) []string {
	if len(headers) == 0 {
		return headers
	}
	headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	return headers
}

// NormalizeHeaders strips the BOM, trims surrounding space and brings each
// name to Unicode NFC. Case is preserved: field names are matched exactly
// downstream.
func NormalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	copy(res, h)
	StripHeaderBOM(res)
	for i, c := range res {
		res[i] = norm.NFC.String(strings.TrimSpace(c))
	}
	return res
}
