// Package repository provides a generic persistence port built on Bun:
// CRUD with typed filters, offset and keyset pagination with a stable id
// tiebreaker, optional soft delete, access whitelisting, upserts, and
// context-threaded transactions.
package repository
