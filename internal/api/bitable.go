package api

import (
	"context"
	"encoding/json"
	"net/http"
)

const bitableAppPath = "/open-apis/bitable/v1/apps/:app_token"

var (
	bitableGetApp = register(Endpoint{
		Scope: "Bitable", Name: "getApp", Method: http.MethodGet,
		Path: bitableAppPath,
		Caps: NeedTenantToken | NeedUserToken,
		Doc:  "Base metadata",
	})
	bitableListTables = register(Endpoint{
		Scope: "Bitable", Name: "listTables", Method: http.MethodGet,
		Path:  bitableAppPath + "/tables",
		Query: []string{"page_token", "page_size"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Tables of a base",
	})
	bitableCreateTable = register(Endpoint{
		Scope: "Bitable", Name: "createTable", Method: http.MethodPost,
		Path:  bitableAppPath + "/tables",
		Query: []string{"user_id_type"},
		Body:  []string{"table"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Create a table",
	})
	bitableDeleteTable = register(Endpoint{
		Scope: "Bitable", Name: "deleteTable", Method: http.MethodDelete,
		Path: bitableAppPath + "/tables/:table_id",
		Caps: NeedTenantToken | NeedUserToken,
		Doc:  "Delete a table",
	})
	bitableListFields = register(Endpoint{
		Scope: "Bitable", Name: "listFields", Method: http.MethodGet,
		Path:  bitableAppPath + "/tables/:table_id/fields",
		Query: []string{"view_id", "text_field_as_array", "page_token", "page_size"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Fields of a table",
	})
	bitableListViews = register(Endpoint{
		Scope: "Bitable", Name: "listViews", Method: http.MethodGet,
		Path:  bitableAppPath + "/tables/:table_id/views",
		Query: []string{"page_size", "page_token"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Views of a table",
	})
	bitableListRecords = register(Endpoint{
		Scope: "Bitable", Name: "listRecords", Method: http.MethodGet,
		Path: bitableAppPath + "/tables/:table_id/records",
		Query: []string{"view_id", "filter", "sort", "field_names", "text_field_as_array",
			"user_id_type", "display_formula_ref", "automatic_fields", "page_token", "page_size"},
		Caps: NeedTenantToken | NeedUserToken,
		Doc:  "Records of a table",
	})
	bitableGetRecord = register(Endpoint{
		Scope: "Bitable", Name: "getRecord", Method: http.MethodGet,
		Path:  bitableAppPath + "/tables/:table_id/records/:record_id",
		Query: []string{"user_id_type"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Record by id",
	})
	bitableCreateRecord = register(Endpoint{
		Scope: "Bitable", Name: "createRecord", Method: http.MethodPost,
		Path:  bitableAppPath + "/tables/:table_id/records",
		Query: []string{"user_id_type"},
		Body:  []string{"fields"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Create a record",
	})
	bitableUpdateRecord = register(Endpoint{
		Scope: "Bitable", Name: "updateRecord", Method: http.MethodPut,
		Path:  bitableAppPath + "/tables/:table_id/records/:record_id",
		Query: []string{"user_id_type"},
		Body:  []string{"fields"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Update a record",
	})
	bitableDeleteRecord = register(Endpoint{
		Scope: "Bitable", Name: "deleteRecord", Method: http.MethodDelete,
		Path: bitableAppPath + "/tables/:table_id/records/:record_id",
		Caps: NeedTenantToken | NeedUserToken,
		Doc:  "Delete a record",
	})
	bitableBatchCreateRecords = register(Endpoint{
		Scope: "Bitable", Name: "batchCreateRecords", Method: http.MethodPost,
		Path:  bitableAppPath + "/tables/:table_id/records/batch_create",
		Query: []string{"user_id_type"},
		Body:  []string{"records"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Create up to 500 records",
	})
)

// BitableApp is a base.
type BitableApp struct {
	AppToken   string `json:"app_token"`
	Name       string `json:"name"`
	Revision   int    `json:"revision"`
	IsAdvanced bool   `json:"is_advanced"`
}

// BitableTable is a table in a base.
type BitableTable struct {
	TableID  string `json:"table_id"`
	Revision int    `json:"revision"`
	Name     string `json:"name"`
}

// BitableField describes a column.
type BitableField struct {
	FieldID   string          `json:"field_id"`
	FieldName string          `json:"field_name"`
	Type      int             `json:"type"`
	Property  json.RawMessage `json:"property,omitempty"`
	IsPrimary bool            `json:"is_primary"`
}

// BitableView is a saved view.
type BitableView struct {
	ViewID   string `json:"view_id"`
	ViewName string `json:"view_name"`
	ViewType string `json:"view_type"`
}

// BitableRecord is one row; field values keep their platform shape.
type BitableRecord struct {
	RecordID string         `json:"record_id,omitempty"`
	Fields   map[string]any `json:"fields"`
}

// RecordQuery holds the optional query fields of record listing.
type RecordQuery struct {
	ViewID     string
	Filter     string
	Sort       string
	FieldNames string
	UserIDType string
	PageParams
}

func tableValues(appToken, tableID string) Values {
	return Values{"app_token": appToken, "table_id": tableID}
}

// GetApp returns base metadata.
func (s BitableService) GetApp(ctx context.Context, appToken string) (*BitableApp, error) {
	var result struct {
		App BitableApp `json:"app"`
	}
	if err := s.Call(ctx, bitableGetApp, Values{"app_token": appToken}, &result); err != nil {
		return nil, err
	}
	return &result.App, nil
}

// ListTables returns one page of tables.
func (s BitableService) ListTables(ctx context.Context, appToken string, page PageParams) (*Page[BitableTable], error) {
	return callInto[Page[BitableTable]](ctx, s.Client, bitableListTables, page.values(Values{"app_token": appToken}))
}

// CreateTable creates a table with the given name and returns its id.
func (s BitableService) CreateTable(ctx context.Context, appToken, name string) (string, error) {
	var result struct {
		TableID string `json:"table_id"`
	}
	err := s.Call(ctx, bitableCreateTable, Values{
		"app_token": appToken,
		"table":     map[string]any{"name": name},
	}, &result)
	if err != nil {
		return "", err
	}
	return result.TableID, nil
}

// DeleteTable deletes a table.
func (s BitableService) DeleteTable(ctx context.Context, appToken, tableID string) error {
	return s.Call(ctx, bitableDeleteTable, tableValues(appToken, tableID), nil)
}

// ListFields returns one page of fields, optionally restricted to a view.
func (s BitableService) ListFields(ctx context.Context, appToken, tableID, viewID string, page PageParams) (*Page[BitableField], error) {
	values := page.values(tableValues(appToken, tableID))
	values["view_id"] = Opt(viewID)
	return callInto[Page[BitableField]](ctx, s.Client, bitableListFields, values)
}

// ListViews returns one page of views.
func (s BitableService) ListViews(ctx context.Context, appToken, tableID string, page PageParams) (*Page[BitableView], error) {
	return callInto[Page[BitableView]](ctx, s.Client, bitableListViews, page.values(tableValues(appToken, tableID)))
}

// ListRecords returns one page of records.
func (s BitableService) ListRecords(ctx context.Context, appToken, tableID string, q RecordQuery) (*Page[BitableRecord], error) {
	values := q.PageParams.values(tableValues(appToken, tableID))
	values["view_id"] = Opt(q.ViewID)
	values["filter"] = Opt(q.Filter)
	values["sort"] = Opt(q.Sort)
	values["field_names"] = Opt(q.FieldNames)
	values["user_id_type"] = Opt(q.UserIDType)
	return callInto[Page[BitableRecord]](ctx, s.Client, bitableListRecords, values)
}

type recordEnvelope struct {
	Record BitableRecord `json:"record"`
}

// GetRecord returns a record.
func (s BitableService) GetRecord(ctx context.Context, appToken, tableID, recordID string) (*BitableRecord, error) {
	values := tableValues(appToken, tableID)
	values["record_id"] = recordID
	result, err := callInto[recordEnvelope](ctx, s.Client, bitableGetRecord, values)
	if err != nil {
		return nil, err
	}
	return &result.Record, nil
}

// CreateRecord creates a record from field values.
func (s BitableService) CreateRecord(ctx context.Context, appToken, tableID string, fields map[string]any) (*BitableRecord, error) {
	values := tableValues(appToken, tableID)
	values["fields"] = fields
	result, err := callInto[recordEnvelope](ctx, s.Client, bitableCreateRecord, values)
	if err != nil {
		return nil, err
	}
	return &result.Record, nil
}

// UpdateRecord replaces the given field values of a record.
func (s BitableService) UpdateRecord(ctx context.Context, appToken, tableID, recordID string, fields map[string]any) (*BitableRecord, error) {
	values := tableValues(appToken, tableID)
	values["record_id"] = recordID
	values["fields"] = fields
	result, err := callInto[recordEnvelope](ctx, s.Client, bitableUpdateRecord, values)
	if err != nil {
		return nil, err
	}
	return &result.Record, nil
}

// DeleteRecord deletes a record.
func (s BitableService) DeleteRecord(ctx context.Context, appToken, tableID, recordID string) error {
	values := tableValues(appToken, tableID)
	values["record_id"] = recordID
	return s.Call(ctx, bitableDeleteRecord, values, nil)
}

// BatchCreateRecords creates several records in one call.
func (s BitableService) BatchCreateRecords(ctx context.Context, appToken, tableID string, records []BitableRecord) ([]BitableRecord, error) {
	values := tableValues(appToken, tableID)
	values["records"] = records
	var result struct {
		Records []BitableRecord `json:"records"`
	}
	if err := s.Call(ctx, bitableBatchCreateRecords, values, &result); err != nil {
		return nil, err
	}
	return result.Records, nil
}
