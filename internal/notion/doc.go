// Package notion binds the watch engine to the Notion API: it pages through
// a database query (optionally filtered server-side on a pending checkbox),
// maps raw page objects onto the canonical ChangeRecord, and clears the
// checkbox to acknowledge delivered notifications.
package notion
