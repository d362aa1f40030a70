// Package diarysdk provides the wire types and a small HTTP client for the
// care diary provisioning service. Frontends and integration tests share it
// so the JSON contract lives in exactly one place.
package diarysdk
