package widgets

// Widget maps one row of the widgets table.
type Widget struct {
	Name    string  `db:"name"    json:"name"`
	Color   *string `db:"color"   json:"color"`
	Version int64   `db:"version" json:"version"`
}

func (Widget) TableName() string { return "widgets" }

// resource is the JSON and template shape: the entity plus its id.
type resource struct {
	ID int64 `json:"id"`
	Widget
}
