package widgets

import "time"

// Style describes the visual configuration of one embeddable chat widget.
// The embed key is the public identifier baked into the embed snippet.
type Style struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Name         string    `json:"name"`
	PrimaryColor string    `json:"primary_color"`
	Position     string    `json:"position"`
	Greeting     string    `json:"greeting"`
	EmbedKey     string    `json:"embed_key"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
