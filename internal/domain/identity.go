package domain

// Identity is the authenticated principal. An Identity exists only between a
// successful login and the matching logout or credential expiry; absence is
// represented by callers, not by a zero Identity.
type Identity struct {
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (i Identity) DisplayName() string {
	if i.FirstName == "" && i.LastName == "" {
		return i.Email
	}
	if i.LastName == "" {
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}
