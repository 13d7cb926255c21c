package graph

import (
	"fmt"

	"github.com/formalizer/fzcore/internal/types"
)

// AddTopic registers a new Topic and assigns it the next available
// TopicID. It fails if tag is already registered.
func (g *Graph) AddTopic(tag string, keywords map[string]float64) (types.TopicID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.topicByTag[tag]; exists {
		return 0, fmt.Errorf("%w: topic tag %q already registered", types.ErrIDCollision, tag)
	}
	g.nextTopicID++
	id := g.nextTopicID
	kw := make(map[string]float64, len(keywords))
	for k, v := range keywords {
		kw[k] = v
	}
	t := &types.Topic{ID: id, Tag: tag, Keywords: kw}
	if err := t.Validate(); err != nil {
		return 0, err
	}
	g.topics[id] = t
	g.topicByTag[tag] = id
	return id, nil
}

// RestoreTopic installs a Topic with a pre-assigned ID, for use by a
// persistence loader reconstructing a Graph from a snapshot. It
// advances the Graph's next-ID counter past id if necessary so
// subsequently-added Topics do not collide.
func (g *Graph) RestoreTopic(id types.TopicID, tag string, keywords map[string]float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	kw := make(map[string]float64, len(keywords))
	for k, v := range keywords {
		kw[k] = v
	}
	g.topics[id] = &types.Topic{ID: id, Tag: tag, Keywords: kw}
	g.topicByTag[tag] = id
	if id > g.nextTopicID {
		g.nextTopicID = id
	}
}

// Topics returns every registered Topic.
func (g *Graph) Topics() []*types.Topic {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*types.Topic, 0, len(g.topics))
	for _, t := range g.topics {
		copyT := *t
		out = append(out, &copyT)
	}
	return out
}

// TopicExists reports whether id is a registered Topic.
func (g *Graph) TopicExists(id types.TopicID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.topics[id]
	return ok
}

// FindTopicByTag looks up a Topic's ID by its unique tag string.
func (g *Graph) FindTopicByTag(tag string) (types.TopicID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.topicByTag[tag]
	if !ok {
		return 0, fmt.Errorf("%w: topic tag %q", types.ErrNotFound, tag)
	}
	return id, nil
}
