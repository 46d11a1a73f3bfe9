package domain

import "time"

var SongCategories = []string{
	"Entrance",
	"Kyrie",
	"Gloria",
	"Psalm",
	"Acclamation",
	"Offertory",
	"Sanctus",
	"Memorial",
	"Amen",
	"Lamb of God",
	"Communion",
	"Recessional",
	"Other",
}

type Song struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Composer  string    `json:"composer,omitempty"`
	Category  string    `json:"category"`
	Key       string    `json:"key,omitempty"`
	Lyrics    string    `json:"lyrics,omitempty"`
	SheetURL  string    `json:"sheet_url,omitempty"`
	CreatedBy uint      `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SongFilter struct {
	Query    string
	Category string
}
