package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// helpdeskCaps is shared by every helpdesk endpoint: the tenant token plus
// the helpdesk header.
const helpdeskCaps = NeedTenantToken | NeedHelpdeskAuth

var (
	helpdeskGetTicket = register(Endpoint{
		Scope: "Helpdesk", Name: "getTicket", Method: http.MethodGet,
		Path: "/open-apis/helpdesk/v1/tickets/:ticket_id",
		Caps: helpdeskCaps,
		Doc:  "Ticket details",
	})
	helpdeskListTickets = register(Endpoint{
		Scope: "Helpdesk", Name: "listTickets", Method: http.MethodGet,
		Path: "/open-apis/helpdesk/v1/tickets",
		Query: []string{"ticket_id", "agent_id", "closed_by_id", "type", "channel", "solved", "score",
			"status_list", "guest_name", "guest_id", "tags", "page", "page_size",
			"create_time_start", "create_time_end", "update_time_start", "update_time_end"},
		Caps: helpdeskCaps,
		Doc:  "Tickets matching the filters",
	})
	helpdeskUpdateTicket = register(Endpoint{
		Scope: "Helpdesk", Name: "updateTicket", Method: http.MethodPut,
		Path: "/open-apis/helpdesk/v1/tickets/:ticket_id",
		Body: []string{"status", "tag_names", "comment", "ticket_type", "solved", "channel", "customized_fields"},
		Caps: helpdeskCaps,
		Doc:  "Update ticket status, tags or comment",
	})
	helpdeskListFAQs = register(Endpoint{
		Scope: "Helpdesk", Name: "listFAQs", Method: http.MethodGet,
		Path:  "/open-apis/helpdesk/v1/faqs",
		Query: []string{"category_id", "status", "search", "page_token", "page_size"},
		Caps:  helpdeskCaps,
		Doc:   "Knowledge base entries",
	})
	helpdeskTicketImage = register(Endpoint{
		Scope: "Helpdesk", Name: "getTicketImage", Method: http.MethodGet,
		Path:  "/open-apis/helpdesk/v1/ticket_images",
		Query: []string{"ticket_id", "msg_id", "index"},
		Caps:  helpdeskCaps | FileDownload,
		Doc:   "Download an image attached to a ticket message",
	})
	helpdeskStartService = register(Endpoint{
		Scope: "Helpdesk", Name: "startService", Method: http.MethodPost,
		Path: "/open-apis/helpdesk/v1/start_service",
		Body: []string{"human_service", "appointed_agents", "open_id", "customized_info"},
		Caps: helpdeskCaps,
		Doc:  "Open a service chat for a user",
	})
)

// Ticket is the subset of ticket fields the CLI surfaces.
type Ticket struct {
	TicketID   string          `json:"ticket_id"`
	HelpdeskID string          `json:"helpdesk_id,omitempty"`
	Guest      json.RawMessage `json:"guest,omitempty"`
	Comments   json.RawMessage `json:"comments,omitempty"`
	TicketType int             `json:"ticket_type"`
	Status     int             `json:"status"`
	Score      int             `json:"score,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`
	ClosedAt   int64           `json:"closed_at,omitempty"`
	Channel    int             `json:"channel,omitempty"`
	Solve      int             `json:"solve,omitempty"`
	ChatID     string          `json:"chat_id,omitempty"`
}

// TicketQuery filters ticket listing. Pages are 1-based.
type TicketQuery struct {
	TicketID        string
	AgentID         string
	Type            int
	Solved          int
	StatusList      []int
	GuestID         string
	Tags            []string
	Page            int
	PageSize        int
	CreateTimeStart int64
	CreateTimeEnd   int64
}

// TicketList is the data of listTickets.
type TicketList struct {
	Total   int      `json:"total"`
	Tickets []Ticket `json:"tickets"`
}

// TicketUpdate holds the writable ticket fields; zero values are not sent.
type TicketUpdate struct {
	Status     int
	TagNames   []string
	Comment    string
	TicketType int
	Solved     int
	Channel    int
}

// GetTicket returns a ticket.
func (s HelpdeskService) GetTicket(ctx context.Context, ticketID string) (*Ticket, error) {
	var result struct {
		Ticket Ticket `json:"ticket"`
	}
	if err := s.Call(ctx, helpdeskGetTicket, Values{"ticket_id": ticketID}, &result); err != nil {
		return nil, err
	}
	return &result.Ticket, nil
}

// ListTickets returns tickets matching q.
func (s HelpdeskService) ListTickets(ctx context.Context, q TicketQuery) (*TicketList, error) {
	values := Values{
		"ticket_id":         Opt(q.TicketID),
		"agent_id":          Opt(q.AgentID),
		"type":              Opt(q.Type),
		"solved":            Opt(q.Solved),
		"guest_id":          Opt(q.GuestID),
		"page":              Opt(q.Page),
		"page_size":         Opt(q.PageSize),
		"create_time_start": Opt(q.CreateTimeStart),
		"create_time_end":   Opt(q.CreateTimeEnd),
	}
	if len(q.StatusList) > 0 {
		values["status_list"] = q.StatusList
	}
	if len(q.Tags) > 0 {
		values["tags"] = q.Tags
	}
	return callInto[TicketList](ctx, s.Client, helpdeskListTickets, values)
}

// UpdateTicket updates a ticket.
func (s HelpdeskService) UpdateTicket(ctx context.Context, ticketID string, u TicketUpdate) error {
	values := Values{
		"ticket_id":   ticketID,
		"status":      Opt(u.Status),
		"comment":     Opt(u.Comment),
		"ticket_type": Opt(u.TicketType),
		"solved":      Opt(u.Solved),
		"channel":     Opt(u.Channel),
	}
	if len(u.TagNames) > 0 {
		values["tag_names"] = u.TagNames
	}
	return s.Call(ctx, helpdeskUpdateTicket, values, nil)
}

// FAQ is a knowledge base entry.
type FAQ struct {
	FAQID      string   `json:"faq_id"`
	ID         string   `json:"id"`
	HelpdeskID string   `json:"helpdesk_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Tags       []string `json:"tags,omitempty"`
	Categories []struct {
		CategoryID string `json:"category_id"`
		Name       string `json:"name"`
	} `json:"categories,omitempty"`
}

// ListFAQs returns one page of FAQs, optionally filtered by category or text.
func (s HelpdeskService) ListFAQs(ctx context.Context, categoryID, search string, page PageParams) (*Page[FAQ], error) {
	return callInto[Page[FAQ]](ctx, s.Client, helpdeskListFAQs, page.values(Values{
		"category_id": Opt(categoryID),
		"search":      Opt(search),
	}))
}

// TicketImage downloads the index-th image of a ticket message.
func (s HelpdeskService) TicketImage(ctx context.Context, ticketID, msgID string, index int) (*Download, error) {
	return callInto[Download](ctx, s.Client, helpdeskTicketImage, Values{
		"ticket_id": ticketID,
		"msg_id":    msgID,
		"index":     index,
	})
}

// StartService opens a service chat for openID and returns its chat id.
func (s HelpdeskService) StartService(ctx context.Context, openID string, humanService bool, appointedAgents []string) (string, error) {
	values := Values{
		"open_id":       openID,
		"human_service": humanService,
	}
	if len(appointedAgents) > 0 {
		values["appointed_agents"] = appointedAgents
	}
	var result struct {
		ChatID string `json:"chat_id"`
	}
	if err := s.Call(ctx, helpdeskStartService, values, &result); err != nil {
		return "", err
	}
	return result.ChatID, nil
}
