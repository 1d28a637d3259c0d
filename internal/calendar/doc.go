// Package calendar provides a client for the Google Calendar API backed by
// credentials resolved from an authorization session.
//
// The client operates on the user's primary calendar: listing and searching
// events within a time range, creating, updating and deleting events, and
// listing the available event colors.
package calendar
