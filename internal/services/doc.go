// Package services defines shared utilities consumed by the capture and
// analytics pipelines and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session and capture-cycle identifiers for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper and Classify, which map
//     failures onto the kinds the capture loop uses for its retry and status
//     decisions (device, transport, server, empty result, fetch).
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the pipelines.
package services
