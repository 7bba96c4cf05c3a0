package api

import (
	"context"
	"encoding/json"
	"net/http"
)

var (
	ehrListEmployees = register(Endpoint{
		Scope: "EHR", Name: "listEmployees", Method: http.MethodGet,
		Path: "/open-apis/ehr/v1/employees",
		Query: []string{"view", "status", "type", "start_time", "end_time", "user_id_type", "user_ids",
			"page_token", "page_size"},
		Caps: NeedTenantToken,
		Doc:  "Employee roster",
	})
	ehrDownloadAttachment = register(Endpoint{
		Scope: "EHR", Name: "downloadAttachment", Method: http.MethodGet,
		Path: "/open-apis/ehr/v1/attachments/:token",
		Caps: NeedTenantToken | FileDownload,
		Doc:  "Download an employee attachment",
	})
)

// EmployeeQuery filters the roster. View is "basic" or "full"; Status and
// Type take the platform's numeric codes.
type EmployeeQuery struct {
	View       string
	Status     []int
	Type       []int
	StartTime  int64
	EndTime    int64
	UserIDType string
	UserIDs    []string
	PageParams
}

// Employee is a roster entry; SystemFields holds the HR attributes.
type Employee struct {
	UserID       string          `json:"user_id"`
	SystemFields json.RawMessage `json:"system_fields,omitempty"`
	CustomFields json.RawMessage `json:"custom_fields,omitempty"`
}

// ListEmployees returns one page of employees.
func (s EHRService) ListEmployees(ctx context.Context, q EmployeeQuery) (*Page[Employee], error) {
	values := q.PageParams.values(Values{
		"view":         Opt(q.View),
		"start_time":   Opt(q.StartTime),
		"end_time":     Opt(q.EndTime),
		"user_id_type": Opt(q.UserIDType),
	})
	if len(q.Status) > 0 {
		values["status"] = q.Status
	}
	if len(q.Type) > 0 {
		values["type"] = q.Type
	}
	if len(q.UserIDs) > 0 {
		values["user_ids"] = q.UserIDs
	}
	return callInto[Page[Employee]](ctx, s.Client, ehrListEmployees, values)
}

// DownloadAttachment returns the content of an attachment.
func (s EHRService) DownloadAttachment(ctx context.Context, token string) (*Download, error) {
	return callInto[Download](ctx, s.Client, ehrDownloadAttachment, Values{"token": token})
}
