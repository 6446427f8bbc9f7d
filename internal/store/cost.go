package store

// SaveSessionCost persists a session's cumulative cost, invoked by the
// session actor once on shutdown.
func (s *Store) SaveSessionCost(cost *SessionCost) error {
	if cost == nil {
		return nil
	}
	if err := ValidateSessionID(cost.SessionID); err != nil {
		return err
	}
	return WriteJSONAtomic(s.sessionCostPath(cost.SessionID), cost, 0o644)
}

// GetSessionCost returns the persisted cost for a session, or ErrNotFound.
func (s *Store) GetSessionCost(sessionID string) (*SessionCost, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, ErrNotFound
	}
	var cost SessionCost
	ok, err := ReadJSON(s.sessionCostPath(sessionID), &cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &cost, nil
}

// readMetadataLocked reads metadata.json, returning a zero-value struct with
// initialized maps if it has never been written.
func (s *Store) readMetadataLocked() (*metadataFile, error) {
	var meta metadataFile
	ok, err := ReadJSON(s.metadataPath(), &meta)
	if err != nil {
		return nil, err
	}
	if !ok || meta.Transcripts == nil {
		meta.Transcripts = make(map[string]*TranscriptMeta)
	}
	return &meta, nil
}

// UpdateGlobalCost performs an atomic read-modify-write of metadata.json's
// global_cost section, applying delta on top of the current cumulative
// totals. Two sequential calls with deltas x then y are equivalent to one
// call with the field-wise sum of x and y, because both go through the same
// read-modify-write under the metadata mutex.
func (s *Store) UpdateGlobalCost(delta GlobalCostDelta) (*GlobalCost, error) {
	s.metadataMu.Lock()
	defer s.metadataMu.Unlock()

	meta, err := s.readMetadataLocked()
	if err != nil {
		return nil, err
	}

	meta.GlobalCost.InputTokens += delta.InputTokens
	meta.GlobalCost.OutputTokens += delta.OutputTokens
	meta.GlobalCost.CacheCreationTokens += delta.CacheCreationTokens
	meta.GlobalCost.CacheReadTokens += delta.CacheReadTokens
	meta.GlobalCost.TotalCostUSD += delta.CostUSD
	if delta.NewSession {
		meta.GlobalCost.SessionCount++
	}

	if err := WriteJSONAtomic(s.metadataPath(), meta, 0o644); err != nil {
		return nil, err
	}
	result := meta.GlobalCost
	return &result, nil
}

// GetGlobalCost returns the current process-wide cost aggregate.
func (s *Store) GetGlobalCost() (*GlobalCost, error) {
	s.metadataMu.Lock()
	defer s.metadataMu.Unlock()

	meta, err := s.readMetadataLocked()
	if err != nil {
		return nil, err
	}
	result := meta.GlobalCost
	return &result, nil
}
