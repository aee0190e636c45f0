package notifications

import "time"

// Config describes the notification endpoints and presentation settings.
type Config struct {
	APIURL             string        `env:"NOTIFY_API_URL,required"`
	GlobalTopic        string        `env:"NOTIFY_GLOBAL_TOPIC" envDefault:"/topic/notifications"`
	UserTopic          string        `env:"NOTIFY_USER_TOPIC" envDefault:"/user/{email}/topic/notifications"`
	SendDestination    string        `env:"NOTIFY_SEND_DESTINATION" envDefault:"/app/notification.send"`
	PrivateDestination string        `env:"NOTIFY_PRIVATE_DESTINATION" envDefault:"/app/notification.private"`
	MarkAllDestination string        `env:"NOTIFY_MARK_ALL_DESTINATION" envDefault:"/app/notification.markAllAsRead"`
	APITimeout         time.Duration `env:"NOTIFY_API_TIMEOUT" envDefault:"10s"`
	Locale             string        `env:"NOTIFY_LOCALE" envDefault:"en"`
	SelfDelivery       bool          `env:"NOTIFY_SELF_DELIVERY" envDefault:"false"`
	RefreshInterval    time.Duration `env:"NOTIFY_REFRESH_INTERVAL" envDefault:"1m"`
}

// Destinations returns the outbound destinations.
func (c Config) Destinations() Destinations {
	return Destinations{
		Send:    c.SendDestination,
		Private: c.PrivateDestination,
		MarkAll: c.MarkAllDestination,
	}
}
