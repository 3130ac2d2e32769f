package models

// Creator is the identity on whose behalf an asset is created.
// Exactly one of UserID and GroupID is non-zero.
type Creator struct {
	UserID  int64 `json:"userId,omitempty"`
	GroupID int64 `json:"groupId,omitempty"`
}

// IsGroup reports whether the asset is created for a group
func (c Creator) IsGroup() bool {
	return c.GroupID != 0
}
