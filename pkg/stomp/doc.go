// Package stomp opens STOMP 1.2 sessions to the notification broker.
//
// NetDialer speaks STOMP over WebSocket (ws/wss, the production setup behind
// a Spring-style broker relay) or over raw TCP (tcp/stomp). Framing,
// heartbeats and subscriptions are handled by github.com/go-stomp/stomp; the
// WebSocket socket comes from github.com/coder/websocket.
//
// A Session reports exactly one terminal condition through Done and Err: an
// ERROR frame, a socket failure (including a missed heartbeat), a failed
// send, or Close. Frames of one subscription are delivered to its Handler
// sequentially in arrival order.
package stomp
