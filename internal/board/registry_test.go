package board

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry(0, 0)

	room1, err := reg.GetOrCreate("b1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	room2, err := reg.GetOrCreate("b1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if room1 != room2 {
		t.Error("Same board id should return the same room instance")
	}

	other, _ := reg.GetOrCreate("b2")
	if other == room1 {
		t.Error("Different boards should have different rooms")
	}
	if reg.Count() != 2 {
		t.Errorf("Expected 2 rooms, got %d", reg.Count())
	}
}

func TestRegistryConcurrentCreateSingleInstance(t *testing.T) {
	reg := NewRegistry(0, 0)

	rooms := make([]*Room, 50)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room, err := reg.GetOrCreate("shared")
			if err != nil {
				t.Errorf("GetOrCreate failed: %v", err)
				return
			}
			rooms[i] = room
		}(i)
	}
	wg.Wait()

	for i := 1; i < 50; i++ {
		if rooms[i] != rooms[0] {
			t.Fatalf("Concurrent creation produced more than one room instance")
		}
	}
	if reg.Count() != 1 {
		t.Errorf("Expected 1 room, got %d", reg.Count())
	}
}

func TestRegistryGetAbsent(t *testing.T) {
	reg := NewRegistry(0, 0)

	if _, ok := reg.Get("nope"); ok {
		t.Error("Get should report absence for an unknown board")
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry(0, 0)
	reg.GetOrCreate("b1")

	reg.Remove("b1")
	if _, ok := reg.Get("b1"); ok {
		t.Error("Room should be gone after Remove")
	}

	// Removing again is harmless.
	reg.Remove("b1")
}

func TestRegistryRemoveSkipsOccupiedRoom(t *testing.T) {
	reg := NewRegistry(0, 0)
	room, _ := reg.GetOrCreate("b1")
	room.AddSession("s1")

	reg.Remove("b1")
	if _, ok := reg.Get("b1"); !ok {
		t.Error("Remove must not evict a room with joined sessions")
	}
}

func TestRegistryBoardLimit(t *testing.T) {
	reg := NewRegistry(2, 0)

	for i := 0; i < 2; i++ {
		if _, err := reg.GetOrCreate(fmt.Sprintf("b%d", i)); err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
	}
	if _, err := reg.GetOrCreate("overflow"); err != ErrTooManyBoards {
		t.Errorf("Expected ErrTooManyBoards, got %v", err)
	}

	// Existing boards stay reachable at the limit.
	if _, err := reg.GetOrCreate("b0"); err != nil {
		t.Errorf("Existing board should not hit the limit: %v", err)
	}
}

func TestRegistryRoomIsolation(t *testing.T) {
	reg := NewRegistry(0, 0)
	a, _ := reg.GetOrCreate("a")
	b, _ := reg.GetOrCreate("b")

	a.Append(pencil("only-in-a"))

	if b.ElementCount() != 0 {
		t.Error("Element appended to board a leaked into board b")
	}
	if len(b.Snapshot()) != 0 {
		t.Error("Board b snapshot should be empty")
	}
}

func TestRegistryActiveBoards(t *testing.T) {
	reg := NewRegistry(0, 0)
	a, _ := reg.GetOrCreate("a")
	a.AddSession("s1")
	a.AddSession("s2")
	reg.GetOrCreate("b")

	counts := reg.ActiveBoards()
	if counts["a"] != 2 {
		t.Errorf("Expected 2 sessions on a, got %d", counts["a"])
	}
	if counts["b"] != 0 {
		t.Errorf("Expected 0 sessions on b, got %d", counts["b"])
	}
}
