// Package ocrapi talks to the value/unit extraction service.
//
// The client is a plain request/response transform. It never retries; the
// capture controller owns retry policy. Responses with success:false surface as
// *services.ServerError carrying the server text, request failures and
// undecodable bodies are tagged services.ErrTransport, and missing collections
// decode as empty slices.
package ocrapi
