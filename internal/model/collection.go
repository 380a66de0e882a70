package model

// Collection is the persisted document: every item plus the id counter.
// NextID holds the last identifier handed out; it only ever grows.
type Collection struct {
	NextID int64  `json:"nextId"`
	Items  []Item `json:"items"`
}

// Index returns the position of the item with the given id, or -1.
func (c *Collection) Index(id int64) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Allocate issues the next identifier.
func (c *Collection) Allocate() int64 {
	c.NextID++
	return c.NextID
}

// Remove deletes the item at position i, keeping creation order.
func (c *Collection) Remove(i int) Item {
	item := c.Items[i]
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return item
}
