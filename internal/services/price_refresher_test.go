package services

import (
	"testing"
	"time"

	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

func TestChunkIDs(t *testing.T) {
	ids := make([]int, 65)
	for i := range ids {
		ids[i] = i + 1
	}

	chunks := chunkIDs(ids, priceChunkSize)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	wantSizes := []int{30, 30, 5}
	for i, want := range wantSizes {
		if len(chunks[i]) != want {
			t.Errorf("chunk %d size = %d, want %d", i, len(chunks[i]), want)
		}
	}
	// The final partial chunk must carry the trailing ids.
	last := chunks[2]
	if last[0] != 61 || last[4] != 65 {
		t.Errorf("final chunk = %v, want ids 61..65", last)
	}
}

func TestChunkIDsExactMultiple(t *testing.T) {
	chunks := chunkIDs([]int{1, 2, 3, 4}, 2)
	if len(chunks) != 2 || len(chunks[0]) != 2 || len(chunks[1]) != 2 {
		t.Errorf("chunks = %v, want two chunks of 2", chunks)
	}
}

func TestChunkIDsEmpty(t *testing.T) {
	if chunks := chunkIDs(nil, 30); chunks != nil {
		t.Errorf("chunks = %v, want nil", chunks)
	}
}

func TestDedupStackIDs(t *testing.T) {
	stacks := []models.OwnedItemStack{
		{ItemID: 19700, Count: 50},
		{ItemID: 19697, Count: 12},
		{ItemID: 19700, Count: 250, CharacterName: "Alt"},
		{ItemID: 24295, Count: 3},
		{ItemID: 19697, Count: 1},
	}

	ids := dedupStackIDs(stacks)
	want := []int{19700, 19697, 24295}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		updatedAt time.Time
		ok        bool
		want      bool
	}{
		{name: "never stamped", ok: false, want: true},
		{name: "fresh", updatedAt: now.Add(-time.Hour), ok: true, want: false},
		{name: "just under a day", updatedAt: now.Add(-PriceStalenessThreshold + time.Second), ok: true, want: false},
		{name: "exactly a day", updatedAt: now.Add(-PriceStalenessThreshold), ok: true, want: true},
		{name: "well past a day", updatedAt: now.Add(-48 * time.Hour), ok: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsRefresh(tt.updatedAt, tt.ok, PriceStalenessThreshold, now); got != tt.want {
				t.Errorf("needsRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
