// Package imagesource defines the image search collaborator and its Unsplash
// implementation.
package imagesource

import (
	"context"
	"strings"
)

// Image is a photo returned by an image provider.
type Image struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	Description    string `json:"description,omitempty"`
	AltDescription string `json:"alt_description,omitempty"`
	Color          string `json:"color,omitempty"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Likes          int    `json:"likes"`
	Author         string `json:"author,omitempty"`
}

// Text returns the combined lower-case descriptive text.
func (i Image) Text() string {
	return strings.ToLower(strings.TrimSpace(i.Description + " " + i.AltDescription))
}

// Order is the sort order requested from a search.
type Order string

const (
	OrderRelevant Order = "relevant"
	OrderLatest   Order = "latest"
)

// Orders lists every supported search order.
var Orders = []Order{OrderRelevant, OrderLatest}

// Source is an image provider.
type Source interface {
	// Search returns one page of photos matching topic.
	Search(ctx context.Context, topic string, page, perPage int, order Order) ([]Image, error)
	// Random returns up to count random photos, optionally filtered by topic.
	Random(ctx context.Context, count int, topic string) ([]Image, error)
}
