package realtime

// Событийный словарь realtime-канала.
// Клиент -> сервер: dm:joinOrCreate, dm:message, dm:leave.
// Сервер -> клиент: dm:joined, dm:message, dm:error, notification:new.
const (
	EventDMJoined        = "dm:joined"
	EventDMMessage       = "dm:message"
	EventDMError         = "dm:error"
	EventNotificationNew = "notification:new"
)

// Publisher - способность доставить событие живым подключениям.
// Внедряется в сервисы конструктором: никакого глобального io-синглтона.
// Публикация fire-and-forget: ошибка доставки не влияет на результат
// основного действия.
type Publisher interface {
	// PublishToUser шлет событие во все подключения персонального канала user:<id>
	PublishToUser(userID, event string, payload interface{})
	// PublishToConversation шлет событие всем подключениям, вошедшим в канал диалога
	PublishToConversation(conversationID, event string, payload interface{})
}

// NoopPublisher - заглушка для тестов и оффлайн-режимов
type NoopPublisher struct{}

func (NoopPublisher) PublishToUser(string, string, interface{})         {}
func (NoopPublisher) PublishToConversation(string, string, interface{}) {}
