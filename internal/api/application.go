package api

import (
	"context"
	"net/http"
)

var (
	applicationGet = register(Endpoint{
		Scope: "Application", Name: "getApplication", Method: http.MethodGet,
		Path:  "/open-apis/application/v6/applications/:app_id",
		Query: []string{"lang", "user_id_type"},
		Caps:  NeedTenantToken,
		Doc:   "Application details",
	})
	applicationList = register(Endpoint{
		Scope: "Application", Name: "listApplications", Method: http.MethodGet,
		Path:  "/open-apis/application/v6/applications",
		Query: []string{"page_size", "page_token", "user_id_type", "lang", "status"},
		Caps:  NeedTenantToken,
		Doc:   "Applications installed in the tenant",
	})
	applicationVisibility = register(Endpoint{
		Scope: "Application", Name: "getAppVisibility", Method: http.MethodGet,
		Path:  "/open-apis/application/v2/app/visibility",
		Query: []string{"app_id", "user_page_token", "user_page_size"},
		Caps:  NeedTenantToken,
		Doc:   "Users and departments the application is visible to",
	})
	applicationIsUserAdmin = register(Endpoint{
		Scope: "Application", Name: "isUserAdmin", Method: http.MethodGet,
		Path: "/open-apis/application/v3/is_user_admin",
		Caps: NeedUserToken,
		Doc:  "Whether the user owning the user token is a tenant admin",
	})
)

// Application is the subset of application fields the CLI surfaces.
type Application struct {
	AppID           string `json:"app_id"`
	CreatorID       string `json:"creator_id,omitempty"`
	Status          int    `json:"status"`
	SceneType       int    `json:"scene_type"`
	PrimaryLanguage string `json:"primary_language,omitempty"`
	AppName         string `json:"app_name,omitempty"`
	Description     string `json:"description,omitempty"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	OwnerType       int    `json:"owner_type,omitempty"`
}

// ApplicationQuery holds the optional query fields of application reads.
type ApplicationQuery struct {
	Lang       string
	UserIDType string
	Status     *int
	PageParams
}

// Get returns an application by app id.
func (s ApplicationService) Get(ctx context.Context, appID string, q ApplicationQuery) (*Application, error) {
	var result struct {
		App Application `json:"app"`
	}
	err := s.Call(ctx, applicationGet, Values{
		"app_id":       appID,
		"lang":         Opt(q.Lang),
		"user_id_type": Opt(q.UserIDType),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result.App, nil
}

// List returns one page of applications.
func (s ApplicationService) List(ctx context.Context, q ApplicationQuery) (*Page[Application], error) {
	values := q.PageParams.values(Values{
		"user_id_type": Opt(q.UserIDType),
		"lang":         Opt(q.Lang),
	})
	if q.Status != nil {
		values["status"] = *q.Status
	}
	var result struct {
		AppList   []Application `json:"app_list"`
		PageToken string        `json:"page_token"`
		HasMore   bool          `json:"has_more"`
		Total     int           `json:"total_count"`
	}
	if err := s.Call(ctx, applicationList, values, &result); err != nil {
		return nil, err
	}
	return &Page[Application]{HasMore: result.HasMore, PageToken: result.PageToken, Total: result.Total, Items: result.AppList}, nil
}

// AppVisibility is the visibility scope of an application.
type AppVisibility struct {
	IsVisibleToAll bool   `json:"is_visible_to_all"`
	HasMoreUsers   int    `json:"has_more_users"`
	UserPageToken  string `json:"user_page_token,omitempty"`
	Departments    []struct {
		ID string `json:"id"`
	} `json:"departments"`
	Users []struct {
		UserID string `json:"user_id"`
		OpenID string `json:"open_id"`
	} `json:"users"`
}

// Visibility returns who can see the app.
func (s ApplicationService) Visibility(ctx context.Context, appID string, page PageParams) (*AppVisibility, error) {
	return callInto[AppVisibility](ctx, s.Client, applicationVisibility, Values{
		"app_id":          appID,
		"user_page_token": Opt(page.PageToken),
		"user_page_size":  Opt(page.PageSize),
	})
}

// IsUserAdmin reports whether the user behind userAccessToken is an admin.
// An empty token falls back to Config.UserAccessToken.
func (s ApplicationService) IsUserAdmin(ctx context.Context, userAccessToken string) (bool, error) {
	req, err := applicationIsUserAdmin.Request(s.BaseURL, nil)
	if err != nil {
		return false, err
	}
	req.UserAccessToken = userAccessToken
	var result struct {
		IsAppAdmin bool `json:"is_app_admin"`
	}
	if err := s.Do(ctx, req, &result); err != nil {
		return false, err
	}
	return result.IsAppAdmin, nil
}
