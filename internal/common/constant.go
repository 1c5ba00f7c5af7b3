// Package common contains shared constants, sentinel errors and small helpers
// used across the AnyLog client components.
package common

// UserAgent is sent with every request so the node treats the caller as an
// AnyLog REST client.
const UserAgent = "AnyLog/1.23"

// BookmarkPolicy is the name of the shared nested document that mirrors
// preset groups on the node.
const BookmarkPolicy = "bookmark_policy"

// IngestTopic is the message-client topic used for JSON data ingestion.
const IngestTopic = "new-data"
