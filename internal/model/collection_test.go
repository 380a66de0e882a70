package model

import "testing"

func TestCollectionAllocate(t *testing.T) {
	c := &Collection{}
	for want := int64(1); want <= 3; want++ {
		if got := c.Allocate(); got != want {
			t.Errorf("Allocate() = %d, want %d", got, want)
		}
	}
	if c.NextID != 3 {
		t.Errorf("expected NextID 3, got %d", c.NextID)
	}
}

func TestCollectionRemoveKeepsOrder(t *testing.T) {
	c := &Collection{Items: []Item{{ID: 1}, {ID: 2}, {ID: 3}}}

	removed := c.Remove(c.Index(2))
	if removed.ID != 2 {
		t.Errorf("expected removed id 2, got %d", removed.ID)
	}
	if len(c.Items) != 2 || c.Items[0].ID != 1 || c.Items[1].ID != 3 {
		t.Errorf("unexpected items after remove: %+v", c.Items)
	}
	if c.Index(2) != -1 {
		t.Error("expected removed item to be gone")
	}
}

func TestItemPhotoURL(t *testing.T) {
	tests := []struct {
		item Item
		want string
	}{
		{Item{ID: 4}, ""},
		{Item{ID: 4, Photo: "a.png"}, "/inventory/4/photo"},
	}

	for _, tt := range tests {
		if got := tt.item.PhotoURL(); got != tt.want {
			t.Errorf("PhotoURL() for %+v = %q, want %q", tt.item, got, tt.want)
		}
	}
}

func TestItemPatchEmpty(t *testing.T) {
	name := ""
	if !(ItemPatch{}).Empty() {
		t.Error("expected zero patch to be empty")
	}
	if (ItemPatch{Name: &name}).Empty() {
		t.Error("patch with explicit empty name should not be empty")
	}
}
