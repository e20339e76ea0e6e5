package rpc

// CreateTopicRequest is the inbound request for PubSub.CreateTopic (§6).
type CreateTopicRequest struct {
	PublisherID        string `json:"publisher_id"`
	ManagementCallback string `json:"management_callback"`
	ManagementProtocol string `json:"management_protocol"`
}

// CreateTopicResponse is the inbound response for PubSub.CreateTopic.
type CreateTopicResponse struct {
	GeneratedTopic string `json:"generated_topic"`
	BrokerURI      string `json:"broker_uri"`
	BrokerProtocol string `json:"broker_protocol"`
}

// DeleteTopicRequest is the inbound request for PubSub.DeleteTopic.
type DeleteTopicRequest struct {
	Topic string `json:"topic"`
}

// DeleteTopicResponse is always empty; DeleteTopic is fire-and-forget from
// the caller's perspective.
type DeleteTopicResponse struct{}

// ManageTopicRequest is the outbound request the service sends to a
// publisher's management callback (§4.2, §6).
type ManageTopicRequest struct {
	Topic  string `json:"topic"`
	Action string `json:"action"` // "START" | "STOP" | "DELETE"
}

// ManageTopicResponse is empty; any success status is accepted.
type ManageTopicResponse struct{}
