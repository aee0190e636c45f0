// Package connection maintains the process-wide broker session.
//
// A Manager moves between three states: disconnected, connecting and
// connected. Connect opens a session for an identity and is a no-op while an
// attempt is already in flight. When a session cannot be opened or is lost,
// the manager schedules a retry with a BackoffStrategy until MaxAttempts
// consecutive retries have been made. With the defaults this produces delays
// of 2s, 4s, 6s, 8s and 10s, after which the manager stays disconnected until
// Connect is called again.
//
// Connectivity changes are published on a replay-latest stream:
//
//	sub := mgr.Status(ctx)
//	for msg := range sub.Receive(ctx) {
//		fmt.Println("connected:", msg.Data)
//	}
//
// Subscriptions are established in ConnectHook callbacks, which run after
// every successful activation so that they survive reconnects.
package connection
