package service

// Event names pushed to a user's realtime connections.
const (
	EventLibraryAdded   = "library.added"
	EventLibraryUpdated = "library.updated"
	EventLibraryRemoved = "library.removed"
	EventReviewCreated  = "review.created"
	EventReviewUpdated  = "review.updated"
	EventReviewDeleted  = "review.deleted"
)

// Publisher delivers an event to every live connection of one user.
type Publisher interface {
	PublishToUser(userID uint, event string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) PublishToUser(uint, string, interface{}) {}

func publisherOrNoop(p Publisher) Publisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
