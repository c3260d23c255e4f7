// Package web holds the JSON plumbing shared by ScribeAssist HTTP handlers:
// bounded strict decoding, the status/message response envelope, and client
// address extraction.
package web
