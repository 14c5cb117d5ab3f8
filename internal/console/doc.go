// Package console prints session events to a terminal.
//
// Human messages, assistant replies and notices each get their own color.
// Markdown emphasis markers are dropped from replies since a terminal cannot
// render them.
package console
