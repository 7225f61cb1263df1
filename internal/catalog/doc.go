// Package catalog reads a Calibre library database without modifying it.
//
// The database is opened read-only. Each (book, format) pair in the data
// table is one migratable item whose source id is "<book id>_<FORMAT>" and
// whose file lives at <library>/<book path>/<data name>.<format>.
package catalog
