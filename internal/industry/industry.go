package industry

// Industry is immutable reference data describing a line of business a
// marketplace service can belong to.
type Industry struct {
	ID          int    `json:"industryId"`
	Name        string `json:"industryName"`
	Description string `json:"description"`
}

// View is the per-user projection of an industry: the reference row plus
// whether the user has opted into it. Guest views always carry
// IsSelected=false.
type View struct {
	ID          int    `json:"industryId"`
	Name        string `json:"industryName"`
	Description string `json:"description"`
	IsSelected  bool   `json:"isSelected"`
}

// Selection is one entry of a synchronization request: the desired membership
// state for a single industry. Industries not named in a request are left
// untouched.
type Selection struct {
	IndustryID int  `json:"industryId"`
	IsSelected bool `json:"isSelected"`
}
