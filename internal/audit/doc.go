// Package audit buffers account and session events and relays them to a Sink
// on a background goroutine so request handlers never wait on audit I/O.
//
// The package decides nothing about which events exist; callers build an
// [Event] and hand it to a [Dispatcher].
package audit
