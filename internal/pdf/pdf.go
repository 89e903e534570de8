// Package pdf implements the minimal PDF inspection the upload limits
// need: format sniffing and page counting. Uploads are relayed to the
// document provider as-is, so nothing heavier than a scan is required.
package pdf

import (
	"bytes"
	"errors"
	"regexp"
)

var ErrNotPDF = errors.New("not a PDF document")

var header = []byte("%PDF-")

// pageObject matches the page-object type entries in the document body.
// The trailing group separates /Page objects from the /Pages tree nodes.
var pageObject = regexp.MustCompile(`/Type\s*/Page(s?)\b`)

// IsPDF reports whether content starts with the PDF file header. Some
// producers prepend junk before the header; the first 1KiB is checked.
func IsPDF(content []byte) bool {
	prefix := content
	if len(prefix) > 1024 {
		prefix = prefix[:1024]
	}
	return bytes.Contains(prefix, header)
}

// PageCount counts the page objects in the document. The count comes
// from a raw scan for /Type /Page entries, which is exact for the
// uncompressed object tables the upstream tooling emits. A document
// whose pages are hidden in compressed object streams counts as zero,
// which the limit check treats as acceptable rather than oversized.
func PageCount(content []byte) (int, error) {
	if !IsPDF(content) {
		return 0, ErrNotPDF
	}
	count := 0
	for _, m := range pageObject.FindAllSubmatch(content, -1) {
		if len(m[1]) == 0 {
			count++
		}
	}
	return count, nil
}
