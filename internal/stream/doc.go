// Package stream implements the resilient WebSocket layer of the SDK.
//
// A Manager:
//   - owns exactly one live socket at a time
//   - reconnects dropped connections with bounded exponential backoff
//   - reports lifecycle and payload activity through typed events
//
// TerminalStream and StatsStream specialize the Manager for the two server
// channels: bidirectional terminal I/O with the binary resize command, and
// the read-only JSON metrics feed.
package stream
