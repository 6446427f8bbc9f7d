package audit

import "testing"

func TestSessionCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newSessionCache(2)
	c.put("a", nil)
	c.put("b", nil)
	c.put("c", nil) // evicts "a"

	if _, ok := c.get("a"); ok {
		t.Fatalf("expected %q to be evicted", "a")
	}
	if _, ok := c.get("b"); !ok {
		t.Fatalf("expected %q to remain cached", "b")
	}
	if _, ok := c.get("c"); !ok {
		t.Fatalf("expected %q to remain cached", "c")
	}
}

func TestSessionCacheTouchPreservesRecentlyUsed(t *testing.T) {
	c := newSessionCache(2)
	c.put("a", nil)
	c.put("b", nil)
	c.get("a") // touch a, making b the LRU entry
	c.put("c", nil)

	if _, ok := c.get("b"); ok {
		t.Fatalf("expected %q to be evicted after touching %q", "b", "a")
	}
	if _, ok := c.get("a"); !ok {
		t.Fatalf("expected %q to remain cached after touch", "a")
	}
}
