// Package table locates an HTML table by its header names and converts its rows into records.
//
// Extraction searches every <table> of a document, in document order, for the
// first header row containing all required column names. Header comparison is
// case-insensitive and ignores whitespace differences. Data rows are then read
// positionally by the matched column indexes; rows shorter than the header
// yield null fields instead of failing.
package table
