// Package broadcast provides type-safe in-process fan-out.
//
// MemoryBroadcaster delivers every message to every subscriber and drops
// subscribers that fall behind. LatestBroadcaster behaves like a value cell:
// a subscriber immediately receives the current value and afterwards only the
// newest one, which suits state such as a connection flag or a list snapshot.
//
//	status := broadcast.NewLatestBroadcaster(false)
//	sub := status.Subscribe(ctx)
//	defer sub.Close()
//
//	status.Publish(true)
//	for msg := range sub.Receive(ctx) {
//		fmt.Println("connected:", msg.Data)
//	}
package broadcast
