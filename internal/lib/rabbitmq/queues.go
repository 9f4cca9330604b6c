package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации в обменнике notifications.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Очереди уведомлений о лицензиях.
const (
	LicenseExpiringQueue      = "notifications.license_expiring"
	LicenseExpiringRoutingKey = "license_expiring"
)

// GetNotificationQueues возвращает список очередей уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: LicenseExpiringQueue, RoutingKey: LicenseExpiringRoutingKey},
	}
}
