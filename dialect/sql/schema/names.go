package schema

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// initialisms are kept upper-cased in generated Go names.
var initialisms = map[string]bool{
	"ACL": true, "API": true, "CPU": true, "CSS": true, "DNS": true,
	"HTML": true, "HTTP": true, "HTTPS": true, "ID": true, "IP": true,
	"JSON": true, "SKU": true, "SQL": true, "SSH": true, "TLS": true,
	"TTL": true, "UI": true, "URI": true, "URL": true, "UTC": true,
	"UUID": true, "XML": true,
}

// GoName turns a database identifier into an exported Go identifier:
// "unit_price" becomes "UnitPrice" and "product_id" becomes "ProductID".
func GoName(s string) string {
	// Casers keep state and are not shared between goroutines.
	title := cases.Title(language.Und, cases.NoLower)
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		if up := strings.ToUpper(w); initialisms[up] {
			b.WriteString(up)
			continue
		}
		b.WriteString(title.String(w))
	}
	name := b.String()
	if name == "" {
		return "X"
	}
	if r := []rune(name)[0]; !unicode.IsLetter(r) || !unicode.IsUpper(r) {
		name = "X" + name
	}
	return name
}

// Plural returns the Go name of a collection of s.
func Plural(s string) string {
	return GoName(inflect.Pluralize(s))
}
