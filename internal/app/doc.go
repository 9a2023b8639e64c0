// Package app assembles the watcher from configuration: logging, the Notion
// source, the GitHub-backed checkpoint log and run history, the notification
// dispatcher, the retention sweeper, and the run journal. It exposes the two
// execution modes (one-shot and cron daemon).
package app
