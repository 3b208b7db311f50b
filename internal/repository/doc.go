// Package repository defines the storage interface for uploaded graph
// payloads.
//
// The sqlite subpackage implements it. The default database is in-memory, so
// payloads live as long as the process; pointing the configuration at a file
// keeps them across restarts.
package repository
