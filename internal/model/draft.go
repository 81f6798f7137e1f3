package model

import "time"

// Draft is the latest auto-saved, not yet submitted input text of a client
type Draft struct {
	OwnerID   string    `json:"ownerId" bson:"ownerId"`
	Text      string    `json:"text" bson:"text"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DraftRequest is the request body for saving a draft
type DraftRequest struct {
	Text string `json:"text"`
}
