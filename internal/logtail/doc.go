// Package logtail reads the tail of flowdecoder's log file.
//
// Read keeps a ring buffer of the last maxLines lines so memory stays bounded
// regardless of file size. A missing file yields no lines and no error.
//
// The log file holds one JSON record per line. Format turns a record into a
// compact human-readable line for the logs subcommand:
//
//	14:32:15 INFO  decode succeeded bytes=42
package logtail
