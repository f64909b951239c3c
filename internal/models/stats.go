package models

// Statistics 管理后台概览数据
type Statistics struct {
	TotalUsers        int `json:"total_users"`
	NewUsersThisMonth int `json:"new_users_this_month"`
	ActiveChargers    int `json:"active_chargers"`
	PendingApprovals  int `json:"pending_approvals"`
	TotalBookings     int `json:"total_bookings"`
	BookingsThisMonth int `json:"bookings_this_month"`
	TotalRevenue      int `json:"total_revenue"`
	RevenueThisMonth  int `json:"revenue_this_month"`
}
