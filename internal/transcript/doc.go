// Package transcript keeps the rendered state of a chat conversation.
//
// A Transcript is a session.Sink. It stands in for the message list of a chat
// window: entries in display order, loading placeholders, and whether the
// input is enabled. Display-name changes relabel every human entry already
// shown. Assistant replies flagged as markdown are converted to HTML with
// goldmark; New(nil) keeps everything as plain text.
package transcript
