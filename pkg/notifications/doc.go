// Package notifications routes, stores and publishes user notifications.
//
// Inbound frames arrive through a Router hooked into the connection manager.
// Frames on the global topic are accepted only when they carry no recipient
// or are addressed to the session identity; frames on the per-user topic are
// always accepted. Accepted records land in a Store that keeps them newest
// first and publishes list and unread-count snapshots:
//
//	store := notifications.NewStore(notifications.WithFormatter(notifications.NewTimeFormatter("de")))
//	router := notifications.NewRouter(store)
//	conn := connection.New(dialer, connection.WithConnectHook(router.OnConnect))
//
// Outbound commands go through a Publisher over the live transport. Mark-all-read
// falls back to the REST Client when the transport is down. Manager ties the
// pieces together behind calls that never fail: REST errors are logged and
// replaced by empty results.
package notifications
