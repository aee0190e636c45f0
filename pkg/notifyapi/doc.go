// Package notifyapi exposes the notification pipeline of a running daemon
// over a local HTTP interface.
//
// Replies are JSON envelopes of the form {"data": ...} or
// {"error": {"code": ..., "message": ...}}. GET /notifications/stream is a
// server-sent event stream carrying the "notifications", "unread" and
// "notification" events.
//
//	api := notifyapi.New(manager, conn, holder,
//		notifyapi.WithLogger(log),
//		notifyapi.WithHealthChecks(httpserver.Check{Name: "broker", Probe: brokerProbe}),
//	)
//	srv := httpserver.New(api.Handler(), httpserver.WithAddr(":8088"))
package notifyapi
