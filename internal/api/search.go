package api

import (
	"context"
	"encoding/json"
	"net/http"
)

const searchDataSourcePath = "/open-apis/search/v2/data_sources"

var (
	searchListDataSources = register(Endpoint{
		Scope: "Search", Name: "listDataSources", Method: http.MethodGet,
		Path:  searchDataSourcePath,
		Query: []string{"view", "page_size", "page_token"},
		Caps:  NeedTenantToken,
		Doc:   "Search connector data sources",
	})
	searchCreateDataSource = register(Endpoint{
		Scope: "Search", Name: "createDataSource", Method: http.MethodPost,
		Path: searchDataSourcePath,
		Body: []string{"name", "state", "description", "icon_url", "template", "searchable_fields",
			"i18n_name", "i18n_description", "schema_id"},
		Caps: NeedTenantToken,
		Doc:  "Create a data source",
	})
	searchGetDataSource = register(Endpoint{
		Scope: "Search", Name: "getDataSource", Method: http.MethodGet,
		Path: searchDataSourcePath + "/:data_source_id",
		Caps: NeedTenantToken,
		Doc:  "Data source by id",
	})
	searchDeleteDataSource = register(Endpoint{
		Scope: "Search", Name: "deleteDataSource", Method: http.MethodDelete,
		Path: searchDataSourcePath + "/:data_source_id",
		Caps: NeedTenantToken,
		Doc:  "Delete a data source",
	})
	searchCreateItem = register(Endpoint{
		Scope: "Search", Name: "createItem", Method: http.MethodPost,
		Path: searchDataSourcePath + "/:data_source_id/items",
		Body: []string{"id", "acl", "metadata", "structured_data", "content"},
		Caps: NeedTenantToken,
		Doc:  "Index an item into a data source",
	})
	searchGetItem = register(Endpoint{
		Scope: "Search", Name: "getItem", Method: http.MethodGet,
		Path: searchDataSourcePath + "/:data_source_id/items/:item_id",
		Caps: NeedTenantToken,
		Doc:  "Indexed item by id",
	})
	searchDeleteItem = register(Endpoint{
		Scope: "Search", Name: "deleteItem", Method: http.MethodDelete,
		Path: searchDataSourcePath + "/:data_source_id/items/:item_id",
		Caps: NeedTenantToken,
		Doc:  "Remove an item from a data source",
	})
)

// DataSource is a search connector data source. State 0 is online.
type DataSource struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	State         int    `json:"state"`
	Description   string `json:"description,omitempty"`
	CreateTime    string `json:"create_time,omitempty"`
	UpdateTime    string `json:"update_time,omitempty"`
	IsExceedQuota bool   `json:"is_exceed_quota,omitempty"`
	IconURL       string `json:"icon_url,omitempty"`
	Template      string `json:"template,omitempty"`
	SchemaID      string `json:"schema_id,omitempty"`
}

// SearchItemACL grants read access to an indexed item.
type SearchItemACL struct {
	Access string `json:"access"`
	Value  string `json:"value"`
	Type   string `json:"type"`
}

// SearchItem is a document indexed into a data source.
type SearchItem struct {
	ID             string          `json:"id"`
	ACL            []SearchItemACL `json:"acl"`
	Metadata       json.RawMessage `json:"metadata"`
	StructuredData string          `json:"structured_data,omitempty"`
	Content        json.RawMessage `json:"content,omitempty"`
}

type dataSourceEnvelope struct {
	DataSource DataSource `json:"data_source"`
}

// ListDataSources returns one page of data sources.
func (s SearchService) ListDataSources(ctx context.Context, page PageParams) (*Page[DataSource], error) {
	return callInto[Page[DataSource]](ctx, s.Client, searchListDataSources, page.values(nil))
}

// CreateDataSource creates a data source.
func (s SearchService) CreateDataSource(ctx context.Context, ds DataSource) (*DataSource, error) {
	result, err := callInto[dataSourceEnvelope](ctx, s.Client, searchCreateDataSource, Values{
		"name":        ds.Name,
		"state":       ds.State,
		"description": Opt(ds.Description),
		"icon_url":    Opt(ds.IconURL),
		"template":    Opt(ds.Template),
		"schema_id":   Opt(ds.SchemaID),
	})
	if err != nil {
		return nil, err
	}
	return &result.DataSource, nil
}

// GetDataSource returns a data source.
func (s SearchService) GetDataSource(ctx context.Context, id string) (*DataSource, error) {
	result, err := callInto[dataSourceEnvelope](ctx, s.Client, searchGetDataSource, Values{"data_source_id": id})
	if err != nil {
		return nil, err
	}
	return &result.DataSource, nil
}

// DeleteDataSource deletes a data source.
func (s SearchService) DeleteDataSource(ctx context.Context, id string) error {
	return s.Call(ctx, searchDeleteDataSource, Values{"data_source_id": id}, nil)
}

// CreateItem indexes an item.
func (s SearchService) CreateItem(ctx context.Context, dataSourceID string, item SearchItem) error {
	values := Values{
		"data_source_id":  dataSourceID,
		"id":              item.ID,
		"acl":             item.ACL,
		"structured_data": Opt(item.StructuredData),
	}
	if len(item.Metadata) > 0 {
		values["metadata"] = item.Metadata
	}
	if len(item.Content) > 0 {
		values["content"] = item.Content
	}
	return s.Call(ctx, searchCreateItem, values, nil)
}

// GetItem returns an indexed item.
func (s SearchService) GetItem(ctx context.Context, dataSourceID, itemID string) (*SearchItem, error) {
	var result struct {
		Item SearchItem `json:"item"`
	}
	err := s.Call(ctx, searchGetItem, Values{"data_source_id": dataSourceID, "item_id": itemID}, &result)
	if err != nil {
		return nil, err
	}
	return &result.Item, nil
}

// DeleteItem removes an indexed item.
func (s SearchService) DeleteItem(ctx context.Context, dataSourceID, itemID string) error {
	return s.Call(ctx, searchDeleteItem, Values{"data_source_id": dataSourceID, "item_id": itemID}, nil)
}
