// Package storage provides file persistence for agenda runs.
//
// Extracted records are stored as a JSON array of flat objects whose key order
// follows the requested headers. HTML is written without escaping so the
// Portuguese text in the file stays readable. Captured portal pages are
// sanitized before they are saved. The default storage location is
// ~/.local/share/inovar-agenda/.
package storage
