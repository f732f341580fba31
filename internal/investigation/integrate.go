package investigation

import "probedeck/internal/model"

// MergeChat folds a batch of externally delivered chat messages into the
// active investigation. Messages whose id is already present are dropped,
// new ones are appended in delivery order, so replaying the same batch is a
// no-op. Returns the number of messages accepted; zero without an active
// investigation.
func (s *Store) MergeChat(messages []model.ChatMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || len(messages) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(s.active.ChatMessages))
	for _, m := range s.active.ChatMessages {
		seen[m.ID] = struct{}{}
	}
	accepted := 0
	for _, m := range messages {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		s.active.ChatMessages = append(s.active.ChatMessages, m)
		accepted++
	}
	if accepted > 0 {
		chatMerged.Add(float64(accepted))
		s.scheduleActive()
	}
	return accepted
}

// MergeSessions replaces the per-agent transcripts for agents that belong
// to the active investigation. Each feed entry fully overwrites the stored
// transcript for that agent; entries for agents outside the investigation
// are ignored. Returns the number of transcripts replaced.
func (s *Store) MergeSessions(feed map[string]model.AgentSession) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || len(feed) == 0 {
		return 0
	}
	replaced := 0
	for name, session := range feed {
		if !s.active.HasAgent(name) {
			continue
		}
		if s.active.AgentSessions == nil {
			s.active.AgentSessions = make(map[string][]model.ChatMessage)
		}
		s.active.AgentSessions[name] = append([]model.ChatMessage(nil), session.Messages...)
		replaced++
	}
	if replaced > 0 {
		sessionsReplaced.Add(float64(replaced))
		s.scheduleActive()
	}
	return replaced
}
