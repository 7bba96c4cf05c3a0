package api

import (
	"context"
	"net/http"
)

var (
	adminDeptStats = register(Endpoint{
		Scope: "Admin", Name: "getDeptStats", Method: http.MethodGet,
		Path:  "/open-apis/admin/v1/admin_dept_stats",
		Query: []string{"department_id_type", "start_date", "end_date", "department_id", "contains_child_dept", "page_size", "page_token"},
		Caps:  NeedTenantToken,
		Doc:   "Daily usage statistics per department",
	})
	adminUserStats = register(Endpoint{
		Scope: "Admin", Name: "getUserStats", Method: http.MethodGet,
		Path:  "/open-apis/admin/v1/admin_user_stats",
		Query: []string{"user_id_type", "department_id_type", "start_date", "end_date", "department_id", "user_id", "page_size", "page_token"},
		Caps:  NeedTenantToken,
		Doc:   "Daily usage statistics per user",
	})
)

// StatsQuery selects a date range of admin statistics. Dates are YYYY-MM-DD.
type StatsQuery struct {
	StartDate         string
	EndDate           string
	DepartmentID      string
	DepartmentIDType  string
	UserID            string
	UserIDType        string
	ContainsChildDept bool
	PageParams
}

// DeptStat is one department-day row.
type DeptStat struct {
	Date             string `json:"date"`
	DepartmentID     string `json:"department_id"`
	DepartmentName   string `json:"department_name"`
	DepartmentPath   string `json:"department_path"`
	TotalUserNum     int    `json:"total_user_num"`
	ActiveUserNum    int    `json:"active_user_num"`
	ActiveUserRate   string `json:"active_user_rate"`
	SuiteActiveNum   int    `json:"suite_active_user_num"`
	IMActiveUserNum  int    `json:"im_active_user_num"`
	SendMessageNum   int    `json:"send_messenger_num"`
	DocsActiveNum    int    `json:"docs_active_user_num"`
	MeetingActiveNum int    `json:"meeting_active_user_num"`
}

// UserStat is one user-day row.
type UserStat struct {
	Date           string `json:"date"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name"`
	DepartmentName string `json:"department_name"`
	DepartmentPath string `json:"department_path"`
	CreateTime     string `json:"create_time"`
	UserActiveFlag int    `json:"user_active_flag"`
	RegisterState  int    `json:"register_state"`
	SuiteActive    int    `json:"suite_active_flag"`
	LastActiveTime string `json:"last_active_time"`
}

// DeptStats lists department statistics.
func (s AdminService) DeptStats(ctx context.Context, q StatsQuery) (*Page[DeptStat], error) {
	return callInto[Page[DeptStat]](ctx, s.Client, adminDeptStats, q.PageParams.values(Values{
		"department_id_type":  Opt(q.DepartmentIDType),
		"start_date":          q.StartDate,
		"end_date":            q.EndDate,
		"department_id":       q.DepartmentID,
		"contains_child_dept": q.ContainsChildDept,
	}))
}

// UserStats lists per-user statistics.
func (s AdminService) UserStats(ctx context.Context, q StatsQuery) (*Page[UserStat], error) {
	return callInto[Page[UserStat]](ctx, s.Client, adminUserStats, q.PageParams.values(Values{
		"user_id_type":       Opt(q.UserIDType),
		"department_id_type": Opt(q.DepartmentIDType),
		"start_date":         q.StartDate,
		"end_date":           q.EndDate,
		"department_id":      Opt(q.DepartmentID),
		"user_id":            Opt(q.UserID),
	}))
}
