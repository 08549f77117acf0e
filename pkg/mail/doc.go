// Package mail delivers rendered messages over an authenticated, TLS-secured
// SMTP session, with bounded retry and exponential backoff for transient
// failures. The session is opened once per run and reused across recipients.
package mail
