// Package cli implements the command-line interface for inovar-agenda.
//
// The cli package provides the Cobra-based CLI: fetch captures the agenda
// page from the school portal, extract turns an HTML table into JSON records,
// notify and show select the upcoming events, and run chains the whole
// pipeline. It coordinates the portal, scraper, table, storage, event,
// calendar and notifier packages.
package cli
