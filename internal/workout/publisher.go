package workout

// MultiPublisher fans each snapshot out to every non-nil publisher in order.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(snapshot Snapshot) {
	for _, p := range m {
		if p != nil {
			p.Publish(snapshot)
		}
	}
}
