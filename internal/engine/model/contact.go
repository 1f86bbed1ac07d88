package model

// ContactInfo holds contact fields collected from the visitor. Empty string
// means "not collected yet". Fields are write-once-when-empty: a populated
// field is never overwritten by a weaker extraction.
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Merge fills empty fields of c from other without overwriting populated ones.
func (c *ContactInfo) Merge(other ContactInfo) {
	if c.Name == "" && other.Name != "" {
		c.Name = other.Name
	}
	if c.Phone == "" && other.Phone != "" {
		c.Phone = other.Phone
	}
	if c.Email == "" && other.Email != "" {
		c.Email = other.Email
	}
}

// Field returns the value of a named contact field.
func (c ContactInfo) Field(name string) string {
	switch name {
	case "name":
		return c.Name
	case "phone":
		return c.Phone
	case "email":
		return c.Email
	}
	return ""
}

// Collected reports which fields are populated, in name/phone/email order.
func (c ContactInfo) Collected() []string {
	var out []string
	for _, f := range []string{"name", "phone", "email"} {
		if c.Field(f) != "" {
			out = append(out, f)
		}
	}
	return out
}
