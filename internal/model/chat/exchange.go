package chat

// ExchangeRequest is the JSON body posted to the webhook endpoint.
type ExchangeRequest struct {
	ChatInput string `json:"chatInput"`
	SessionID string `json:"sessionId"`
}

// ExchangeReply is the webhook response. Only Output is consumed; a nil Output means
// the field was absent from the body.
type ExchangeReply struct {
	Output *string `json:"output,omitempty"`
}

// HasOutput reports whether the reply carried an output field.
func (r ExchangeReply) HasOutput() bool {
	return r.Output != nil
}
