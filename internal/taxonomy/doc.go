// Package taxonomy classifies resolved books and derives their place in the
// target tree.
//
// Layouts by language:
//
//	jpn:     root/lang/category/[【有系列】|【单行本】/]author/(series|title)
//	eng:     root/lang/category/[subcategory/]author/(series|title)
//	other:   root/lang/author/(series|title)
//
// The series sub-bucket only applies to light novels. Author folders carry
// the author's earliest publication month ("[2003-04] Name") or "[未知]"
// when unknown. Every segment is sanitized, and a path longer than the
// configured limit has its last segment cut to 50 characters.
//
// Builder is pure: the same request always yields the same placement.
package taxonomy
