// Package database provides connection management, schema bootstrap,
// configuration types, the persistence error taxonomy, logging, health
// checks, and related utilities built on top of Bun.
package database
