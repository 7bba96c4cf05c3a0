package api

import (
	"context"
	"net/http"
)

var (
	contactGetUser = register(Endpoint{
		Scope: "Contact", Name: "getUser", Method: http.MethodGet,
		Path:  "/open-apis/contact/v3/users/:user_id",
		Query: []string{"user_id_type", "department_id_type"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "User by id",
	})
	contactBatchGetUserID = register(Endpoint{
		Scope: "Contact", Name: "batchGetUserID", Method: http.MethodPost,
		Path:  "/open-apis/contact/v3/users/batch_get_id",
		Query: []string{"user_id_type"},
		Body:  []string{"emails", "mobiles", "include_resigned"},
		Caps:  NeedTenantToken,
		Doc:   "Resolve user ids from emails or mobile numbers",
	})
	contactFindUsersByDepartment = register(Endpoint{
		Scope: "Contact", Name: "findUsersByDepartment", Method: http.MethodGet,
		Path:  "/open-apis/contact/v3/users/find_by_department",
		Query: []string{"user_id_type", "department_id_type", "department_id", "page_size", "page_token"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Direct members of a department",
	})
	contactListDepartmentChildren = register(Endpoint{
		Scope: "Contact", Name: "listDepartmentChildren", Method: http.MethodGet,
		Path:  "/open-apis/contact/v3/departments/:department_id/children",
		Query: []string{"user_id_type", "department_id_type", "fetch_child", "page_size", "page_token"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Sub-departments of a department",
	})
)

// User is the subset of contact user fields the CLI surfaces.
type User struct {
	UnionID       string   `json:"union_id,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	OpenID        string   `json:"open_id,omitempty"`
	Name          string   `json:"name"`
	EnName        string   `json:"en_name,omitempty"`
	Email         string   `json:"email,omitempty"`
	Mobile        string   `json:"mobile,omitempty"`
	DepartmentIDs []string `json:"department_ids,omitempty"`
	LeaderUserID  string   `json:"leader_user_id,omitempty"`
	JobTitle      string   `json:"job_title,omitempty"`
	EmployeeNo    string   `json:"employee_no,omitempty"`
	Status        *struct {
		IsFrozen    bool `json:"is_frozen"`
		IsResigned  bool `json:"is_resigned"`
		IsActivated bool `json:"is_activated"`
	} `json:"status,omitempty"`
}

// Department is a contact department.
type Department struct {
	Name               string `json:"name"`
	DepartmentID       string `json:"department_id"`
	OpenDepartmentID   string `json:"open_department_id"`
	ParentDepartmentID string `json:"parent_department_id"`
	LeaderUserID       string `json:"leader_user_id,omitempty"`
	MemberCount        int    `json:"member_count"`
}

// IDTypes selects how user and department ids are expressed.
type IDTypes struct {
	UserIDType       string
	DepartmentIDType string
}

func (t IDTypes) values(v Values) Values {
	v["user_id_type"] = Opt(t.UserIDType)
	v["department_id_type"] = Opt(t.DepartmentIDType)
	return v
}

// GetUser returns a user.
func (s ContactService) GetUser(ctx context.Context, userID string, ids IDTypes) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	if err := s.Call(ctx, contactGetUser, ids.values(Values{"user_id": userID}), &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

// UserContactID maps an email or mobile to a user id.
type UserContactID struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

// BatchGetUserID resolves user ids by email and mobile number.
func (s ContactService) BatchGetUserID(ctx context.Context, userIDType string, emails, mobiles []string) ([]UserContactID, error) {
	values := Values{"user_id_type": Opt(userIDType)}
	if len(emails) > 0 {
		values["emails"] = emails
	}
	if len(mobiles) > 0 {
		values["mobiles"] = mobiles
	}
	var result struct {
		UserList []UserContactID `json:"user_list"`
	}
	if err := s.Call(ctx, contactBatchGetUserID, values, &result); err != nil {
		return nil, err
	}
	return result.UserList, nil
}

// FindUsersByDepartment returns one page of direct department members.
func (s ContactService) FindUsersByDepartment(ctx context.Context, departmentID string, ids IDTypes, page PageParams) (*Page[User], error) {
	values := page.values(ids.values(Values{"department_id": departmentID}))
	return callInto[Page[User]](ctx, s.Client, contactFindUsersByDepartment, values)
}

// ListDepartmentChildren returns one page of sub-departments. fetchChild
// includes all descendants.
func (s ContactService) ListDepartmentChildren(ctx context.Context, departmentID string, fetchChild bool, ids IDTypes, page PageParams) (*Page[Department], error) {
	values := page.values(ids.values(Values{
		"department_id": departmentID,
		"fetch_child":   Opt(fetchChild),
	}))
	return callInto[Page[Department]](ctx, s.Client, contactListDepartmentChildren, values)
}
