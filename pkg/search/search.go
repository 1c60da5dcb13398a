// Package search 维护组织目录的 Elasticsearch 索引，供目录页按名称/简称全文搜索。
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Document 是写入索引的组织文档。
type Document struct {
	OrgID      uint     `json:"org_id"`
	Name       string   `json:"name"`
	Acronym    string   `json:"acronym"`
	Slug       string   `json:"slug"`
	About      string   `json:"about"`
	CategoryID uint     `json:"category_id"`
	Tags       []string `json:"tags"`
}

// Index 组织索引接口。Search 只返回命中的组织 ID，详细数据仍以数据库为准。
type Index interface {
	Upsert(ctx context.Context, doc Document) error
	Delete(ctx context.Context, orgID uint) error
	Search(ctx context.Context, query string, limit int) ([]uint, error)
}

type elasticIndex struct {
	es    *elasticsearch.Client
	index string
}

// NewElasticIndex 创建基于 Elasticsearch 的索引。
func NewElasticIndex(addresses []string, index string) (Index, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &elasticIndex{es: es, index: index}, nil
}

func (e *elasticIndex) Upsert(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := e.es.Index(e.index, bytes.NewReader(body),
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(docID(doc.OrgID)),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return responseError(res, "index")
}

func (e *elasticIndex) Delete(ctx context.Context, orgID uint) error {
	res, err := e.es.Delete(e.index, docID(orgID), e.es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	// 文档本来就不存在时视为成功
	if res.StatusCode == 404 {
		return nil
	}
	return responseError(res, "delete")
}

func (e *elasticIndex) Search(ctx context.Context, query string, limit int) ([]uint, error) {
	if limit <= 0 {
		limit = 100
	}
	body, err := json.Marshal(map[string]interface{}{
		"_source": []string{"org_id"},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "acronym^3", "tags^2", "about"},
				"fuzziness": "AUTO",
			},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(bytes.NewReader(body)),
		e.es.Search.WithSize(limit),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := responseError(res, "search"); err != nil {
		return nil, err
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]uint, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.Source.OrgID)
	}
	return ids, nil
}

func docID(orgID uint) string {
	return strconv.FormatUint(uint64(orgID), 10)
}

func responseError(res *esapi.Response, op string) error {
	if !res.IsError() {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("elasticsearch %s failed: %s: %s", op, res.Status(), bytes.TrimSpace(raw))
}
