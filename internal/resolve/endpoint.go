package resolve

import (
	"fmt"
	"strings"

	"github.com/larkkit/lark-cli/internal/api"
)

// Endpoint finds a registry endpoint by exact key ("bitable.listRecords"),
// by bare API name when only one scope has it ("getBotInfo"), or by fuzzy
// abbreviation ("bitlistrec").
func Endpoint(query string) (api.Endpoint, error) {
	if e, ok := api.LookupEndpoint(query); ok {
		return e, nil
	}
	name := strings.TrimSpace(query)
	var (
		keys    []Named
		sameAPI []Match
	)
	for _, e := range api.Endpoints() {
		keys = append(keys, Named{ID: e.Key(), Name: e.Key()})
		if strings.EqualFold(e.Name, name) {
			sameAPI = append(sameAPI, Match{ID: e.Key(), Name: e.Key()})
		}
	}
	if len(sameAPI) > 1 {
		return api.Endpoint{}, &AmbiguousError{Query: query, Matches: sameAPI}
	}

	key := ""
	if len(sameAPI) == 1 {
		key = sameAPI[0].ID
	} else {
		var err error
		if key, err = Best(query, keys); err != nil {
			return api.Endpoint{}, fmt.Errorf("resolve endpoint: %w", err)
		}
	}
	e, _ := api.LookupEndpoint(key)
	return e, nil
}

// Chats turns listed chats into candidates matched by chat name.
func Chats(chats []api.Chat) []Named {
	items := make([]Named, len(chats))
	for i, c := range chats {
		items[i] = Named{ID: c.ChatID, Name: c.Name}
	}
	return items
}
