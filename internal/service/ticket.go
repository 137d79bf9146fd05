package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v5"

	"github.com/Skotchmaster/ticket_service/internal/events"
	"github.com/Skotchmaster/ticket_service/internal/logging"
	"github.com/Skotchmaster/ticket_service/internal/models"
	"github.com/Skotchmaster/ticket_service/internal/repo"
	"github.com/Skotchmaster/ticket_service/internal/search"
)

var (
	ErrEmptyTitle = errors.New("title must not be empty")
	ErrBadStatus  = errors.New("status must be 'open' or 'closed'")
	ErrNotOwner   = errors.New("not enough permissions")
)

type TicketService struct {
	Repo   repo.GormRepo
	Search *search.Tickets
	Events *events.Producer
}

func validStatus(status string) bool {
	return status == models.TicketStatusOpen || status == models.TicketStatusClosed
}

func (s *TicketService) Create(ctx context.Context, ownerID uint, title, description, status string) (*models.Ticket, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if status == "" {
		status = models.TicketStatusOpen
	}
	if !validStatus(status) {
		return nil, ErrBadStatus
	}

	ticket := &models.Ticket{
		Title:       title,
		Description: description,
		Status:      status,
		OwnerID:     ownerID,
	}
	if err := s.Repo.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	s.indexTicket(ctx, ticket)
	s.publishTicketEvent(ctx, "ticket_created", ticket)
	return ticket, nil
}

func (s *TicketService) List(ctx context.Context, ownerID uint, skip, limit int, sortBy, order string) ([]models.Ticket, int64, error) {
	return s.Repo.ListTickets(ctx, ownerID, skip, limit, sortBy, order)
}

// Get resolves a ticket for the given requester. Reads are ownership-scoped
// like every mutation, a ticket id is not a capability.
func (s *TicketService) Get(ctx context.Context, requesterID, id uint) (*models.Ticket, error) {
	ticket, err := s.Repo.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != requesterID {
		return nil, ErrNotOwner
	}
	return ticket, nil
}

func validatePatch(patch repo.TicketPatch) error {
	if patch.Title.Valid && strings.TrimSpace(patch.Title.String) == "" {
		return ErrEmptyTitle
	}
	if patch.Status.Valid && !validStatus(patch.Status.String) {
		return ErrBadStatus
	}
	return nil
}

func (s *TicketService) Update(ctx context.Context, requesterID, id uint, patch repo.TicketPatch) (*models.Ticket, error) {
	ticket, err := s.Repo.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != requesterID {
		return nil, ErrNotOwner
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	updated, err := s.Repo.UpdateTicket(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.indexTicket(ctx, updated)
	s.publishTicketEvent(ctx, "ticket_updated", updated)
	return updated, nil
}

func (s *TicketService) Close(ctx context.Context, requesterID, id uint) (*models.Ticket, error) {
	return s.Update(ctx, requesterID, id, repo.TicketPatch{
		Status: null.StringFrom(models.TicketStatusClosed),
	})
}

func (s *TicketService) Delete(ctx context.Context, requesterID, id uint) (*models.Ticket, error) {
	ticket, err := s.Repo.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != requesterID {
		return nil, ErrNotOwner
	}

	deleted, err := s.Repo.DeleteTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Search != nil {
		if err := s.Search.DeleteTicket(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search deindex error", "error", err)
		}
	}
	s.publishTicketEvent(ctx, "ticket_deleted", deleted)
	return deleted, nil
}

func (s *TicketService) FullTextSearch(ctx context.Context, ownerID uint, query string, from, size int) (int64, []models.Ticket, error) {
	if s.Search == nil {
		return 0, nil, errors.New("search is not configured")
	}
	return s.Search.Search(ctx, ownerID, query, from, size)
}

func (s *TicketService) SearchEnabled() bool { return s.Search != nil }

func (s *TicketService) indexTicket(ctx context.Context, t *models.Ticket) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexTicket(ctx, t); err != nil {
		logging.FromContext(ctx).Error("search index error", "error", err)
	}
}

func (s *TicketService) publishTicketEvent(ctx context.Context, eventType string, t *models.Ticket) {
	event := map[string]any{
		"type":      eventType,
		"ticket_id": t.ID,
		"owner_id":  t.OwnerID,
		"status":    t.Status,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, events.TopicTicketEvents, fmt.Sprint(t.OwnerID), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
