package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"
)

// Indexer writes one document per auth event into an Elasticsearch index.
// Indexing failures never fail the request that triggered the event.
type Indexer struct {
	ES    *elasticsearch.Client
	Index string
}

func NewClient(url, username, password string) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("audit: create client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("audit: elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("audit: elasticsearch error: %s: %s", res.Status(), body)
	}

	return client, nil
}

func NewIndexer(es *elasticsearch.Client, index string) *Indexer {
	return &Indexer{ES: es, Index: index}
}

func (i *Indexer) Write(ctx context.Context, doc interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("audit: encode document: %w", err)
	}

	res, err := i.ES.Index(i.Index, &buf, i.ES.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("audit: index request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("audit: index response: %s", res.Status())
	}

	return nil
}
