// Package auth implements the unified multi-scope Google OAuth2 session
// authentication subsystem.
//
// Every caller-facing operation is keyed by an opaque, caller-chosen session
// identifier. A session accumulates OAuth scopes monotonically: requesting a
// scope the session does not yet hold triggers a new authorization round trip
// for the union of old and new scopes, without discarding previously granted
// long-lived credentials. Refresh tokens are carried forward when the
// provider omits them on incremental grants.
//
// The package is built from four collaborating pieces:
//
//   - Store: durable JSON-file persistence of session records, including a
//     one-time migration of legacy singular-scope records.
//   - Exchanger: the provider-facing legs of the authorization code flow
//     (authorization URL construction, code exchange, token refresh).
//   - Authenticator: the state machine tying the two together; the single
//     entry point for tool adapters is Authenticate, which returns either
//     live credentials or an authorization URL for the end user.
//   - Credentials: resolved token material ready to back a Google API client.
//
// Sessions move through the states pending, pending_additional_scopes,
// completed and failed; none of them is terminal, so a failed callback can
// always be retried with a fresh authorization code.
package auth
