package domain

const (
	PermissionGrade = "assessment.grade"
	PermissionView  = "assessment.view"
)

type AuthPayload struct {
	Username   string   `json:"username"`
	Permission []string `json:"permission"`
}

// Can reports whether the payload carries the permission string.
func (p AuthPayload) Can(permission string) bool {
	for _, perm := range p.Permission {
		if perm == permission {
			return true
		}
	}
	return false
}
