package chat

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one turn of the conversation log. Messages are never edited or removed.
type Message struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}
