package book

import "time"

type BookReq struct {
	Title           string  `json:"title" validate:"required,min=3,max=100"`
	Description     *string `json:"description,omitempty"`
	PublicationDate string  `json:"publication_date" validate:"required,datetime=2006-01-02"`
	Genre           string  `json:"genre" validate:"required,max=50"`
	AvailableCopies int64   `json:"available_copies" validate:"gte=0"`
	AuthorIDs       []int64 `json:"author_ids" validate:"required,min=1,dive,gt=0"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
