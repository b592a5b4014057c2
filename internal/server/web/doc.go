// Package web serves the locker pages over HTTP. Every form post answers
// with a 303 redirect back to its page, and outcomes travel to the next
// render as session flash messages.
package web
