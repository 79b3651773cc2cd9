// Package scraper loads agenda pages for extraction.
//
// A source is either a path to a saved HTML file or an http(s) URL. URLs are
// fetched with a colly collector that converts the response body to UTF-8, so
// the returned Document carries the Content-Type the table extractor should
// decode it with. Every failure is reported as a *DocumentReadError.
package scraper
