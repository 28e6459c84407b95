package notify

import "context"

// Event describes one review decision worth telling the partner team about.
type Event struct {
	ApplicationID  string `json:"applicationId"`
	InvitationCode string `json:"invitationCode"`
	CompanyName    string `json:"companyName"`
	Section        string `json:"section,omitempty"`
	Status         string `json:"status"`
	Note           string `json:"note,omitempty"`
}

// Dispatcher delivers review events to an external channel. Delivery is
// best-effort: a failed dispatch never fails the review mutation.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

// Noop discards all events.
type Noop struct{}

// Dispatch implements Dispatcher.
func (Noop) Dispatch(ctx context.Context, event Event) error { return nil }

var _ Dispatcher = Noop{}
