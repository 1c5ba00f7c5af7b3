// Package reply classifies raw node replies into a single Envelope shape.
//
// The node answers in several dialects: JSON documents, column-aligned
// tables, "label: value" status lines and blob manifests. Normalize picks
// exactly one Kind for every reply and always keeps the original text in
// Envelope.Raw, so nothing a node says is lost.
package reply
