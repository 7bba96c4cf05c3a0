package api

// Service accessors group endpoints by Open Platform scope. Each service
// embeds *Client so typed wrappers share the one dispatcher.

type AuthService struct{ *Client }

type BotService struct{ *Client }

type AdminService struct{ *Client }

type ApplicationService struct{ *Client }

type AttendanceService struct{ *Client }

type BitableService struct{ *Client }

type ChatService struct{ *Client }

type ContactService struct{ *Client }

type DriveService struct{ *Client }

type EHRService struct{ *Client }

type HelpdeskService struct{ *Client }

type MessageService struct{ *Client }

type SearchService struct{ *Client }

func (c *Client) Auth() AuthService {
	return AuthService{c}
}

func (c *Client) Bot() BotService {
	return BotService{c}
}

func (c *Client) Admin() AdminService {
	return AdminService{c}
}

func (c *Client) Application() ApplicationService {
	return ApplicationService{c}
}

func (c *Client) Attendance() AttendanceService {
	return AttendanceService{c}
}

func (c *Client) Bitable() BitableService {
	return BitableService{c}
}

func (c *Client) Chat() ChatService {
	return ChatService{c}
}

func (c *Client) Contact() ContactService {
	return ContactService{c}
}

func (c *Client) Drive() DriveService {
	return DriveService{c}
}

func (c *Client) EHR() EHRService {
	return EHRService{c}
}

func (c *Client) Helpdesk() HelpdeskService {
	return HelpdeskService{c}
}

func (c *Client) Message() MessageService {
	return MessageService{c}
}

func (c *Client) Search() SearchService {
	return SearchService{c}
}

// Page is the common shape of paginated list data.
type Page[T any] struct {
	HasMore   bool   `json:"has_more"`
	PageToken string `json:"page_token,omitempty"`
	Total     int    `json:"total,omitempty"`
	Items     []T    `json:"items"`
}

// PageParams are the query fields shared by list endpoints.
type PageParams struct {
	PageSize  int
	PageToken string
}

func (p PageParams) values(v Values) Values {
	if v == nil {
		v = Values{}
	}
	v["page_size"] = Opt(p.PageSize)
	v["page_token"] = Opt(p.PageToken)
	return v
}
