package model

import "fmt"

// Item is one registered inventory entry.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Photo is the asset name inside the photo directory, empty when no
	// photo has been uploaded.
	Photo string `json:"photo,omitempty"`
}

// HasPhoto reports whether the item references a stored photo.
func (i *Item) HasPhoto() bool {
	return i.Photo != ""
}

// PhotoURL returns the path under which the item's photo is served, or an
// empty string when the item has none.
func (i *Item) PhotoURL() string {
	if !i.HasPhoto() {
		return ""
	}
	return fmt.Sprintf("/inventory/%d/photo", i.ID)
}

// ItemPatch describes a partial update. Nil fields are left unchanged.
type ItemPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil
}
