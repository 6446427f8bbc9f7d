package audit

import "container/list"

// sessionCache is an in-memory LRU of per-session event lists, bounded by a
// configured number of sessions. Disk remains the source of truth; eviction
// only drops the cache entry, never the underlying file.
type sessionCache struct {
	maxSessions int
	order       *list.List               // front = most recently used
	elems       map[string]*list.Element // session id -> list element
	events      map[string][]*AuditEvent
}

func newSessionCache(maxSessions int) *sessionCache {
	if maxSessions <= 0 {
		maxSessions = 50
	}
	return &sessionCache{
		maxSessions: maxSessions,
		order:       list.New(),
		elems:       make(map[string]*list.Element),
		events:      make(map[string][]*AuditEvent),
	}
}

// get returns the cached events for sessionID and marks it most-recently
// used. The second return value is false on a cache miss.
func (c *sessionCache) get(sessionID string) ([]*AuditEvent, bool) {
	el, ok := c.elems[sessionID]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return c.events[sessionID], true
}

// put installs or replaces a session's event list, evicting the
// least-recently-used session if the cache is over capacity.
func (c *sessionCache) put(sessionID string, events []*AuditEvent) {
	if el, ok := c.elems[sessionID]; ok {
		c.order.MoveToFront(el)
		c.events[sessionID] = events
		return
	}

	el := c.order.PushFront(sessionID)
	c.elems[sessionID] = el
	c.events[sessionID] = events

	for c.order.Len() > c.maxSessions {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.evict(oldest.Value.(string))
	}
}

// evict drops a session's cache entry without touching disk.
func (c *sessionCache) evict(sessionID string) {
	if el, ok := c.elems[sessionID]; ok {
		c.order.Remove(el)
		delete(c.elems, sessionID)
		delete(c.events, sessionID)
	}
}
