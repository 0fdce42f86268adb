package model

// Channel is a delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// DeliveryOutcome is the result of a single send attempt.
// PermanentFailure is only ever true for push endpoints that answered 410.
type DeliveryOutcome struct {
	Channel          Channel
	RecipientRef     string
	Success          bool
	PermanentFailure bool
	StatusCode       int
	Err              error
}

// SendResult aggregates outcomes of one fan-out call.
type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Add folds another result into r.
func (r *SendResult) Add(other SendResult) {
	r.Sent += other.Sent
	r.Failed += other.Failed
}
