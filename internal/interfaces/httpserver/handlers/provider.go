package handlers

// Provider aggregates all HTTP handlers.
type Provider struct {
	Call   *CallHandler
	Stream *StreamHandler
}

// NewProvider creates the handler provider.
func NewProvider(callHandler *CallHandler, streamHandler *StreamHandler) *Provider {
	return &Provider{
		Call:   callHandler,
		Stream: streamHandler,
	}
}
