package entity

type MenuItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Menu struct {
	Items []MenuItem `json:"items"`
}
