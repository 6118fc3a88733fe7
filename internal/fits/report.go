// Package fits parses the XML document produced by the FITS file
// characterization tool in to a flat report of terms.
package fits

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

var ErrMalformedOutput = errors.New("fits output is malformed")

const (
	FormatLabelTerm = "format_label"
	MimeTypeTerm    = "mime_type"
)

// Report is the general characterization of a single file.
type Report struct {
	// FormatLabels holds the format of every identity reported, in order.
	FormatLabels []string
	// MimeType is the mimetype of the first identity which reported one.
	MimeType string
	// Terms holds every value extracted from the document, keyed by term.
	// FormatLabels and MimeType are repeated here under format_label and mime_type.
	Terms map[string][]string
}

// Has returns true if the report contains at least one value for the term.
func (r *Report) Has(term string) bool { return len(r.Terms[term]) > 0 }

func (r *Report) Values(term string) []string { return slices.Clone(r.Terms[term]) }

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}

	return ""
}

// Terms whose name in the report differs from the element FITS uses.
var (
	fileinfoTerms = map[string]string{
		"size":           "file_size",
		"md5checksum":    "original_checksum",
		"lastmodified":   "last_modified",
		"fslastmodified": "last_modified",
		"filepath":       "file_path",
	}
	metadataTerms = map[string]string{
		"title":  "file_title",
		"author": "file_author",
	}
)

// Parse decodes FITS XML output. Every identity contributes a format
// label. The fileinfo, filestatus and metadata sections are flattened in
// to terms; elements within metadata are keyed by their own name, so
// `metadata/document/pageCount` becomes `page_count`.
func Parse(data []byte) (*Report, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedOutput)
	}

	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedOutput, err.Error())
	}
	if root.XMLName.Local != "fits" {
		return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrMalformedOutput, root.XMLName.Local)
	}

	report := &Report{FormatLabels: make([]string, 0), Terms: make(map[string][]string)}
	for _, section := range root.Children {
		switch section.XMLName.Local {
		case "identification":
			report.parseIdentification(&section)
		case "fileinfo", "filestatus":
			report.collect(section.Children, fileinfoTerms)
		case "metadata":
			for _, category := range section.Children {
				report.collect(category.Children, metadataTerms)
			}
		}
	}

	if len(report.FormatLabels) > 0 {
		report.Terms[FormatLabelTerm] = slices.Clone(report.FormatLabels)
	}
	if report.MimeType != "" {
		report.Terms[MimeTypeTerm] = []string{report.MimeType}
	}

	return report, nil
}

func (r *Report) parseIdentification(section *node) {
	for _, identity := range section.Children {
		if identity.XMLName.Local != "identity" {
			continue
		}

		if format := identity.attr("format"); format != "" {
			r.FormatLabels = append(r.FormatLabels, format)
		}
		if mime := identity.attr("mimetype"); mime != "" && r.MimeType == "" {
			r.MimeType = mime
		}
	}
}

func (r *Report) collect(elements []node, renames map[string]string) {
	for _, el := range elements {
		value := strings.TrimSpace(el.Content)
		if value == "" || len(el.Children) > 0 {
			continue
		}

		name := strings.ToLower(el.XMLName.Local)
		term, ok := renames[name]
		if !ok {
			term = snakeCase(el.XMLName.Local)
		}

		if !slices.Contains(r.Terms[term], value) {
			r.Terms[term] = append(r.Terms[term], value)
		}
	}
}

// snakeCase converts element names such as "pageCount" or
// "well-formed" to "page_count" and "well_formed".
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '.':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
