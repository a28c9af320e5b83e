package auth

// UserContext is the authenticated caller attached to a request.
type UserContext struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	RoleID   string `json:"roleId"`
	RoleName string `json:"role"`
}
