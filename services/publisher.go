package services

// Publisher delivers live snapshots. *live.Hub implements it.
type Publisher interface {
	Publish(restaurantID, event string, data interface{})
	PublishAdmin(event string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, interface{}) {}
func (nopPublisher) PublishAdmin(string, interface{})    {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
