package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/ticket_service/internal/models"
)

const DefaultIndex = "tickets"

// Tickets indexes tickets and runs owner-scoped full-text queries.
// Indexing is best-effort: callers log failures and move on.
type Tickets struct {
	ES    *elasticsearch.Client
	Index string
}

func NewTickets(es *elasticsearch.Client) *Tickets {
	return &Tickets{ES: es, Index: DefaultIndex}
}

type ticketDoc struct {
	ID          uint   `json:"id"`
	OwnerID     uint   `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (s *Tickets) IndexTicket(ctx context.Context, t *models.Ticket) error {
	doc := ticketDoc{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("index ticket: %w", err)
	}

	res, err := s.ES.Index(
		s.Index,
		&buf,
		s.ES.Index.WithDocumentID(strconv.FormatUint(uint64(t.ID), 10)),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index ticket: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index ticket: %s", res.Status())
	}
	return nil
}

func (s *Tickets) DeleteTicket(ctx context.Context, id uint) error {
	res, err := s.ES.Delete(
		s.Index,
		strconv.FormatUint(uint64(id), 10),
		s.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete ticket: %s", res.Status())
	}
	return nil
}

func (s *Tickets) Search(ctx context.Context, ownerID uint, query string, from, size int) (int64, []models.Ticket, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"title^2", "description"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"owner_id": ownerID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search tickets: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(s.Index),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search tickets: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search tickets: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Ticket `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search tickets: decode: %w", err)
	}

	tickets := make([]models.Ticket, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		tickets = append(tickets, h.Source)
	}
	return r.Hits.Total.Value, tickets, nil
}
