package tyjson

import "embed"

// embeddedFiles ships the default theme field schema (embedded/theme.json),
// used when no schema is configured.
//
//go:embed embedded/*
var embeddedFiles embed.FS
