package model

import "time"

// Event is an entry in the item audit journal.
type Event struct {
	ID     int64     `json:"id"`
	ItemID int64     `json:"item_id"`
	Action string    `json:"action"`
	Name   string    `json:"name"`
	Photo  string    `json:"photo,omitempty"`
	At     time.Time `json:"at"`
}

// Event actions.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionPhotoReplaced = "photo_replaced"
	ActionDeleted       = "deleted"
)
