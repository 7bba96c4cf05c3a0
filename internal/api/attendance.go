package api

import (
	"context"
	"encoding/json"
	"net/http"
)

var (
	attendanceListGroups = register(Endpoint{
		Scope: "Attendance", Name: "listGroups", Method: http.MethodGet,
		Path:  "/open-apis/attendance/v1/groups",
		Query: []string{"page_size", "page_token"},
		Caps:  NeedTenantToken,
		Doc:   "Attendance groups",
	})
	attendanceGetGroup = register(Endpoint{
		Scope: "Attendance", Name: "getGroup", Method: http.MethodGet,
		Path:  "/open-apis/attendance/v1/groups/:group_id",
		Query: []string{"employee_type", "dept_type"},
		Caps:  NeedTenantToken,
		Doc:   "Attendance group by id",
	})
	attendanceDeleteGroup = register(Endpoint{
		Scope: "Attendance", Name: "deleteGroup", Method: http.MethodDelete,
		Path: "/open-apis/attendance/v1/groups/:group_id",
		Caps: NeedTenantToken,
		Doc:  "Delete an attendance group",
	})
	attendanceGetShift = register(Endpoint{
		Scope: "Attendance", Name: "getShift", Method: http.MethodGet,
		Path: "/open-apis/attendance/v1/shifts/:shift_id",
		Caps: NeedTenantToken,
		Doc:  "Shift by id",
	})
	attendanceQueryUserTasks = register(Endpoint{
		Scope: "Attendance", Name: "queryUserTasks", Method: http.MethodPost,
		Path:  "/open-apis/attendance/v1/user_tasks/query",
		Query: []string{"employee_type", "ignore_invalid_users", "include_terminated_user"},
		Body:  []string{"user_ids", "check_date_from", "check_date_to"},
		Caps:  NeedTenantToken,
		Doc:   "Daily attendance results for users",
	})
	attendanceQueryUserFlows = register(Endpoint{
		Scope: "Attendance", Name: "queryUserFlows", Method: http.MethodPost,
		Path:  "/open-apis/attendance/v1/user_flows/query",
		Query: []string{"employee_type", "include_terminated_user"},
		Body:  []string{"user_ids", "check_time_from", "check_time_to"},
		Caps:  NeedTenantToken,
		Doc:   "Clock-in records for users",
	})
	attendanceUploadFile = register(Endpoint{
		Scope: "Attendance", Name: "uploadFile", Method: http.MethodPost,
		Path:  "/open-apis/attendance/v1/files/upload",
		Query: []string{"file_name"},
		Body:  []string{"file"},
		Caps:  NeedTenantToken | FileUpload,
		Doc:   "Upload a face photo or attachment",
	})
	attendanceDownloadFile = register(Endpoint{
		Scope: "Attendance", Name: "downloadFile", Method: http.MethodGet,
		Path: "/open-apis/attendance/v1/files/:file_id/download",
		Caps: NeedTenantToken | FileDownload,
		Doc:  "Download an attendance file",
	})
)

// AttendanceGroup is kept raw beyond its identity; the schema is large and
// callers usually pass it through.
type AttendanceGroup struct {
	GroupID   string          `json:"group_id"`
	GroupName string          `json:"group_name"`
	Raw       json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the full payload next to the decoded identity.
func (g *AttendanceGroup) UnmarshalJSON(data []byte) error {
	type alias AttendanceGroup
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*g = AttendanceGroup(a)
	g.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Shift is an attendance shift.
type Shift struct {
	ShiftID           string          `json:"shift_id"`
	ShiftName         string          `json:"shift_name"`
	PunchTimes        int             `json:"punch_times"`
	IsFlexible        bool            `json:"is_flexible"`
	FlexibleMinutes   int             `json:"flexible_minutes"`
	NoNeedOff         bool            `json:"no_need_off"`
	PunchTimeRule     json.RawMessage `json:"punch_time_rule,omitempty"`
	LateOffLateOnRule json.RawMessage `json:"late_off_late_on_rule,omitempty"`
	RestTimeRule      json.RawMessage `json:"rest_time_rule,omitempty"`
}

// UserTaskQuery selects attendance results. Dates are yyyyMMdd integers and
// times are unix seconds as strings, the way the platform takes them.
type UserTaskQuery struct {
	EmployeeType          string
	UserIDs               []string
	CheckDateFrom         int
	CheckDateTo           int
	IgnoreInvalidUsers    bool
	IncludeTerminatedUser bool
}

// UserFlowQuery selects clock-in records.
type UserFlowQuery struct {
	EmployeeType          string
	UserIDs               []string
	CheckTimeFrom         string
	CheckTimeTo           string
	IncludeTerminatedUser bool
}

// ListGroups returns one page of attendance groups.
func (s AttendanceService) ListGroups(ctx context.Context, page PageParams) (json.RawMessage, error) {
	var out json.RawMessage
	if err := s.Call(ctx, attendanceListGroups, page.values(nil), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetGroup returns an attendance group.
func (s AttendanceService) GetGroup(ctx context.Context, groupID, employeeType, deptType string) (*AttendanceGroup, error) {
	return callInto[AttendanceGroup](ctx, s.Client, attendanceGetGroup, Values{
		"group_id":      groupID,
		"employee_type": employeeType,
		"dept_type":     Opt(deptType),
	})
}

// DeleteGroup deletes an attendance group.
func (s AttendanceService) DeleteGroup(ctx context.Context, groupID string) error {
	return s.Call(ctx, attendanceDeleteGroup, Values{"group_id": groupID}, nil)
}

// GetShift returns a shift.
func (s AttendanceService) GetShift(ctx context.Context, shiftID string) (*Shift, error) {
	return callInto[Shift](ctx, s.Client, attendanceGetShift, Values{"shift_id": shiftID})
}

// QueryUserTasks returns daily attendance results.
func (s AttendanceService) QueryUserTasks(ctx context.Context, q UserTaskQuery) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.Call(ctx, attendanceQueryUserTasks, Values{
		"employee_type":           q.EmployeeType,
		"ignore_invalid_users":    Opt(q.IgnoreInvalidUsers),
		"include_terminated_user": Opt(q.IncludeTerminatedUser),
		"user_ids":                q.UserIDs,
		"check_date_from":         q.CheckDateFrom,
		"check_date_to":           q.CheckDateTo,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryUserFlows returns clock-in records.
func (s AttendanceService) QueryUserFlows(ctx context.Context, q UserFlowQuery) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.Call(ctx, attendanceQueryUserFlows, Values{
		"employee_type":           q.EmployeeType,
		"include_terminated_user": Opt(q.IncludeTerminatedUser),
		"user_ids":                q.UserIDs,
		"check_time_from":         q.CheckTimeFrom,
		"check_time_to":           q.CheckTimeTo,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UploadFile uploads a file and returns its file id.
func (s AttendanceService) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	var result struct {
		File struct {
			FileID string `json:"file_id"`
		} `json:"file"`
	}
	err := s.Call(ctx, attendanceUploadFile, Values{
		"file_name": name,
		"file":      File{Name: name, Content: content},
	}, &result)
	if err != nil {
		return "", err
	}
	return result.File.FileID, nil
}

// DownloadFile returns the content of an attendance file.
func (s AttendanceService) DownloadFile(ctx context.Context, fileID string) (*Download, error) {
	return callInto[Download](ctx, s.Client, attendanceDownloadFile, Values{"file_id": fileID})
}
