//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore-backed Adapter. It is
// designed for deployment on Google Cloud Platform and supports
// multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
// The package uses the following Datastore kinds:
//   - User: Resolved user accounts
//   - AccountLink: External provider accounts linked to users
//   - Session: Server-side session records
//   - VerificationRequest: Pending email sign-in tokens
//   - Credential: Password hashes for password sign-in
//
// # Namespacing
//
// Pass a namespace when creating the adapter to isolate data between
// tenants:
//
//	adapter := gae.NewAdapter(client, "tenant-123")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	adapter := gae.NewAdapter(client, "") // default namespace
package gae
