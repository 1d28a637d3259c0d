// Package gmail provides a client for the Gmail API backed by credentials
// resolved from an authorization session.
//
// The client supports listing and searching messages, fetching a single
// message with its decoded body and attachment metadata, listing labels,
// downloading attachments, and sending plain-text mail. All operations act
// on the mailbox of the user who granted the session's scopes ("me").
package gmail
