package graph

// Listener receives graph notifications. Calls happen synchronously inside
// Ingest, after the graph is consistent again.
type Listener interface {
	ReplyAdded(id, parentID string)
	ReactionAdded(id, targetID string)
	NodeUpdated(id string)
}

// ListenerFuncs adapts plain functions to Listener; nil fields are skipped.
type ListenerFuncs struct {
	OnReply    func(id, parentID string)
	OnReaction func(id, targetID string)
	OnUpdate   func(id string)
}

func (f ListenerFuncs) ReplyAdded(id, parentID string) {
	if f.OnReply != nil {
		f.OnReply(id, parentID)
	}
}

func (f ListenerFuncs) ReactionAdded(id, targetID string) {
	if f.OnReaction != nil {
		f.OnReaction(id, targetID)
	}
}

func (f ListenerFuncs) NodeUpdated(id string) {
	if f.OnUpdate != nil {
		f.OnUpdate(id)
	}
}

func (g *Graph) emitReply(id, parentID string) {
	for _, l := range g.listeners {
		l.ReplyAdded(id, parentID)
	}
}

func (g *Graph) emitReaction(id, targetID string) {
	for _, l := range g.listeners {
		l.ReactionAdded(id, targetID)
	}
}

func (g *Graph) emitUpdated(id string) {
	for _, l := range g.listeners {
		l.NodeUpdated(id)
	}
}
