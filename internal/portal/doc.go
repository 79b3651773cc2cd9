// Package portal drives a headless browser through the Inovar school portal.
//
// A Session signs in with the configured credentials, opens the activities
// menu, follows the Agenda link and returns the rendered page once the events
// panel is visible. The browser is either started locally or reached through
// a remote DevTools endpoint. When a step fails, a screenshot of the page is
// written next to the other run files when a path is configured.
package portal
