package notifyapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/windlogs/notifykit/pkg/logger"
)

// Event names written on GET /notifications/stream.
const (
	EventNotifications = "notifications"
	EventUnread        = "unread"
	EventArrival       = "notification"
)

// stream writes server-sent events: the full list and the unread count on
// every change, and each newly accepted notification. The current list and
// count are sent first.
func (a *API) stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		a.logger.WarnContext(r.Context(), "event stream not supported", logger.Error(err))
		return
	}

	ctx := r.Context()
	records := a.notifications.SubscribeRecords(ctx)
	defer records.Close()
	unread := a.notifications.SubscribeUnread(ctx)
	defer unread.Close()
	arrivals := a.notifications.SubscribeArrivals(ctx)
	defer arrivals.Close()

	ticker := time.NewTicker(a.keepAlive)
	defer ticker.Stop()

	recordsCh := records.Receive(ctx)
	unreadCh := unread.Receive(ctx)
	arrivalsCh := arrivals.Receive(ctx)

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-recordsCh:
			if !ok {
				return
			}
			err = writeEvent(w, EventNotifications, msg.Data)
		case msg, ok := <-unreadCh:
			if !ok {
				return
			}
			err = writeEvent(w, EventUnread, unreadView{Unread: msg.Data})
		case msg, ok := <-arrivalsCh:
			if !ok {
				// A slow reader loses its arrivals subscription; snapshots still flow.
				arrivalsCh = nil
				continue
			}
			err = writeEvent(w, EventArrival, msg.Data)
		case <-ticker.C:
			_, err = fmt.Fprint(w, ": keep-alive\n\n")
		}
		if err == nil {
			err = rc.Flush()
		}
		if err != nil {
			a.logger.DebugContext(ctx, "event stream closed", logger.Error(err))
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}
