package models

import "time"

// WishSession is a collection being assembled for one greeting
type WishSession struct {
	ID        string          `json:"id"`
	Images    []AcceptedImage `json:"images"`
	Message   string          `json:"message,omitempty"`
	Accepting bool            `json:"accepting"`
	MaxImages int             `json:"max_images"`
	Limits    string          `json:"limits"`
	CreatedAt time.Time       `json:"created_at"`
}

// AcceptedImage describes an image admitted to a collection
type AcceptedImage struct {
	Ordinal     int    `json:"ordinal"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Checksum    string `json:"checksum"`
	AltText     string `json:"alt_text"`
	URL         string `json:"url,omitempty"`
}
