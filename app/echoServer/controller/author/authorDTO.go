package author

import "time"

type CreateAuthorReq struct {
	Name      string  `json:"name" validate:"required,min=2,max=60"`
	Biography *string `json:"biography,omitempty"`
	BirthDate string  `json:"birth_date" validate:"required,datetime=2006-01-02"`
}

type UpdateAuthorReq struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=60"`
	Biography *string `json:"biography,omitempty"`
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
