package models

// User is the signed-in account as reported by /auth/users/me/. The four role
// flags are independent; a lecturer may also be a DRO.
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	IsLecturer bool   `json:"is_lecturer"`
	IsDRO      bool   `json:"is_dro"`
	IsFRO      bool   `json:"is_fro"`
	IsCO       bool   `json:"is_co"`
}

// HasAnyRole reports whether at least one role flag is set.
func (u *User) HasAnyRole() bool {
	if u == nil {
		return false
	}
	return u.IsLecturer || u.IsDRO || u.IsFRO || u.IsCO
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
