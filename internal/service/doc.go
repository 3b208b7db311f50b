// Package service implements the render workflows of railviz.
//
// RenderService sits between the HTTP handlers, the CLI and the file
// watcher on one side and the session manager and payload store on the
// other. It decodes payloads, records metrics and publishes every state
// change on an EventBus.
//
// # Events
//
// Subscribers receive frame, layout_done, session_loaded, session_deleted,
// toggles_changed and viewport_changed events, each tagged with the session
// id so the SSE hub can route them to the right browser.
//
// # Errors
//
// Payloads that cannot be decoded and unknown toggle or viewport requests
// wrap ErrInvalidInput. Graph validation errors from the domain package and
// session errors are returned unchanged so callers can match them with
// errors.Is.
package service
