package model

import "time"

type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	PublicationDate time.Time `json:"publication_date"`
	Genre           string    `json:"genre"`
	AvailableCopies int64     `json:"available_copies"`
	Authors         []Author  `json:"authors"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
