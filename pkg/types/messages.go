package types

// PubSubMessage is the envelope a Pub/Sub trigger delivers to a CloudEvent
// function. Data is base64 in transit; encoding/json decodes it to bytes.
type PubSubMessage struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}
