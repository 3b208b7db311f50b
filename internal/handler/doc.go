// Package handler implements the HTTP API of the railviz render server.
//
// # Handlers
//
// RenderHandler exposes sessions: upload a payload, read its state, SVG
// frame and scene primitives, flip toggles, drive the viewport, re-render
// and download the payload back.
//
// Middleware provides panic recovery, CORS, request logging and request
// metrics.
//
// # Response Format
//
// Success responses return JSON with 200 or 201, except the SVG frame and
// payload downloads. Error responses return JSON with an {error, details}
// structure. A payload whose edges reference missing nodes is answered
// with 422, other invalid input with 400, unknown sessions with 404.
//
// # Server-Sent Events
//
// Layout frames, toggle and viewport changes stream from /events, which the
// hub package serves. Clients pass ?session=<id> to follow one render.
package handler
