// Package fakes provides in-memory fakes for the cloud SDK clients and the
// command executor used by the secret backends. They let backend logic be
// tested without credentials or network access.
package fakes
