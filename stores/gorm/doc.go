//go:build !wasm
// +build !wasm

// Package gorm provides a GORM-backed Adapter. It works with any database
// GORM supports (PostgreSQL, MySQL, SQLite, etc.) and is the usual choice
// for production deployments on a relational database.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - users: Resolved user accounts
//   - account_links: External provider accounts linked to users
//   - sessions: Server-side session records
//   - verification_requests: Pending email sign-in tokens
//   - credentials: Password hashes for password sign-in
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	gormstore.AutoMigrate(db)
//	adapter := gormstore.NewAdapter(db)
package gorm
