// Package ws streams event bus notifications to UI clients.
//
// Each connection gets its own bus subscription. Every event is written as
// one JSON text frame:
//
//	{"id":"evt_...","type":"pty-output","timestamp":"...","payload":{"id":"pty_...","data":"..."}}
//
// Clients may narrow the stream with ?topics=pty-output,pty-exit. Inbound
// frames are read only to detect disconnects.
package ws
