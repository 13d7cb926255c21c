package types

// TopicID identifies a Topic within the Graph's Topic registry.
type TopicID uint16

// Topic is a category tag a Node can be associated with at some relevance.
type Topic struct {
	ID       TopicID
	Tag      string
	Keywords map[string]float64
}

// Validate clamps keyword relevances into [0,1].
func (t *Topic) Validate() error {
	for k, v := range t.Keywords {
		t.Keywords[k] = clampUnit(v)
	}
	return nil
}
