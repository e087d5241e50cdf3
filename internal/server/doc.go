// Package server provides the HTTP server for the to-do list application.
//
// This package handles all HTTP concerns on top of a gin router:
//
//   - Pages: the home page and per-list pages rendered from the embedded templates
//   - Forms: list creation and item appends, answered with Post/Redirect/Get
//   - REST API: JSON snapshot of a list at "/api/lists/:id"
//   - Server-Sent Events: appended items of one list at "/lists/:id/events"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
