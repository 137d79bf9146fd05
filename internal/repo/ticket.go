package repo

import (
	"context"
	"errors"

	"github.com/guregu/null/v5"
	"gorm.io/gorm"

	"github.com/Skotchmaster/ticket_service/internal/models"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrBadSort        = errors.New("sort_by must be 'created_at' or 'title'")
	ErrBadOrder       = errors.New("order must be 'asc' or 'desc'")
)

// sortColumns whitelists sortable fields so user input never reaches
// the ORDER BY clause directly.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"title":      "title",
}

// TicketPatch carries a partial update. Only fields that were explicitly
// supplied are valid; absent fields leave the stored value untouched.
type TicketPatch struct {
	Title       null.String
	Description null.String
	Status      null.String
}

func (p TicketPatch) Updates() map[string]any {
	updates := map[string]any{}
	if p.Title.Valid {
		updates["title"] = p.Title.String
	}
	if p.Description.Valid {
		updates["description"] = p.Description.String
	}
	if p.Status.Valid {
		updates["status"] = p.Status.String
	}
	return updates
}

func (r *GormRepo) CreateTicket(ctx context.Context, t *models.Ticket) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) GetTicket(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.DB.WithContext(ctx).First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *GormRepo) ListTickets(ctx context.Context, ownerID uint, skip, limit int, sortBy, order string) ([]models.Ticket, int64, error) {
	col, ok := sortColumns[sortBy]
	if !ok {
		return nil, 0, ErrBadSort
	}
	if order != "asc" && order != "desc" {
		return nil, 0, ErrBadOrder
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Ticket{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tickets []models.Ticket
	if err := r.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order(col + " " + order).
		Offset(skip).
		Limit(limit).
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

func (r *GormRepo) UpdateTicket(ctx context.Context, id uint, patch TicketPatch) (*models.Ticket, error) {
	updates := patch.Updates()
	if len(updates) > 0 {
		tx := r.DB.WithContext(ctx).Model(&models.Ticket{}).
			Where("id = ?", id).
			Updates(updates)
		if tx.Error != nil {
			return nil, tx.Error
		}
		if tx.RowsAffected == 0 {
			return nil, ErrTicketNotFound
		}
	}
	return r.GetTicket(ctx, id)
}

func (r *GormRepo) DeleteTicket(ctx context.Context, id uint) (*models.Ticket, error) {
	ticket, err := r.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Delete(&models.Ticket{}, id).Error; err != nil {
		return nil, err
	}
	return ticket, nil
}
