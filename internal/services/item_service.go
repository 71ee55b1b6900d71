package services

import (
	"fmt"

	"github.com/vrdialip/Peminjaman-App/internal/domain"
	"github.com/vrdialip/Peminjaman-App/internal/imaging"
	"github.com/vrdialip/Peminjaman-App/internal/repos"
	"github.com/vrdialip/Peminjaman-App/internal/storage"
)

// ItemService manages an organization's items. Stock edits re-derive
// available stock so in-flight reservations stay consistent.
type ItemService struct {
	Items *repos.ItemRepo
	Store storage.Store
	Audit AuditSink
}

func NewItemService(items *repos.ItemRepo, store storage.Store, audit AuditSink) *ItemService {
	return &ItemService{Items: items, Store: store, Audit: audit}
}

// ItemInput carries a create or update payload.
type ItemInput struct {
	Name              string
	Category          string
	Description       string
	Stock             int
	HasStock          bool
	Condition         domain.ItemCondition
	ImageBase64       string
	IsLoanable        bool
	NotLoanableReason string
	Status            string
}

func (in ItemInput) validate() error {
	if in.Name == "" {
		return domain.Validationf("name is required")
	}
	if !in.Condition.Valid() {
		return domain.Validationf("condition must be good, fair or poor")
	}
	if in.HasStock && in.Stock < 0 {
		return domain.Validationf("stock must be non-negative")
	}
	if !in.IsLoanable && in.NotLoanableReason == "" {
		return domain.Validationf("a reason is required when the item is not loanable")
	}
	if in.Status != "" && in.Status != "active" && in.Status != "inactive" {
		return domain.Validationf("status must be active or inactive")
	}
	return nil
}

func (s *ItemService) Create(actor domain.Actor, in ItemInput) (*domain.Item, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !in.HasStock {
		return nil, domain.Validationf("stock is required")
	}

	code, err := s.Items.EnsureUniqueCode()
	if err != nil {
		return nil, err
	}

	image := ""
	if in.ImageBase64 != "" {
		image, err = s.storeImage(in.ImageBase64)
		if err != nil {
			return nil, err
		}
	}

	status := in.Status
	if status == "" {
		status = "active"
	}
	item := &domain.Item{
		OrganizationID:    actor.OrganizationID,
		Name:              in.Name,
		Code:              code,
		Category:          repos.CleanCategory(in.Category),
		Description:       in.Description,
		Stock:             in.Stock,
		AvailableStock:    in.Stock, // nothing reserved yet
		Condition:         in.Condition,
		Image:             image,
		IsLoanable:        in.IsLoanable,
		NotLoanableReason: in.NotLoanableReason,
		Status:            status,
	}
	if err := s.Items.Create(item); err != nil {
		return nil, err
	}
	s.audit(actor.UserID, "create", fmt.Sprintf("Created item %s (%s)", item.Name, item.Code),
		"Item", item.ID, nil, item)
	return item, nil
}

func (s *ItemService) Update(actor domain.Actor, itemID int64, in ItemInput) (*domain.Item, error) {
	before, err := s.Get(actor, itemID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	image := before.Image
	if in.ImageBase64 != "" {
		image, err = s.storeImage(in.ImageBase64)
		if err != nil {
			return nil, err
		}
	}
	status := in.Status
	if status == "" {
		status = before.Status
	}

	err = s.Items.Update(itemID, repos.ItemUpdate{
		Name:              in.Name,
		Category:          repos.CleanCategory(in.Category),
		Description:       in.Description,
		Condition:         in.Condition,
		Image:             image,
		IsLoanable:        in.IsLoanable,
		NotLoanableReason: in.NotLoanableReason,
		Status:            status,
	})
	if err != nil {
		return nil, err
	}

	// A total-stock edit applies the same signed delta to available
	// stock, clamped, keeping in-flight reservations consistent.
	if in.HasStock && in.Stock != before.Stock {
		if err := s.Items.AdjustTotal(itemID, in.Stock); err != nil {
			return nil, err
		}
	}

	after, err := s.Items.ByID(itemID)
	if err != nil {
		return nil, err
	}
	s.audit(actor.UserID, "update", fmt.Sprintf("Updated item %s (%s)", after.Name, after.Code),
		"Item", after.ID, before, after)
	return after, nil
}

func (s *ItemService) Delete(actor domain.Actor, itemID int64) error {
	before, err := s.Get(actor, itemID)
	if err != nil {
		return err
	}
	if err := s.Items.SoftDelete(itemID); err != nil {
		return err
	}
	s.audit(actor.UserID, "delete", fmt.Sprintf("Deleted item %s (%s)", before.Name, before.Code),
		"Item", before.ID, before, nil)
	return nil
}

// Get loads one item, enforcing that it belongs to the actor's org.
func (s *ItemService) Get(actor domain.Actor, itemID int64) (*domain.Item, error) {
	item, err := s.Items.ByID(itemID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessOrg(item.OrganizationID) {
		return nil, domain.ErrAccessDenied
	}
	return item, nil
}

func (s *ItemService) List(actor domain.Actor, f repos.ItemFilter) ([]domain.Item, error) {
	return s.Items.ListByOrg(actor.OrganizationID, f)
}

func (s *ItemService) Categories(actor domain.Actor) ([]string, error) {
	return s.Items.Categories(actor.OrganizationID)
}

func (s *ItemService) storeImage(b64 string) (string, error) {
	raw, err := imaging.DecodeBase64(b64)
	if err != nil {
		return "", domain.Validationf("invalid image: %v", err)
	}
	processed, err := imaging.Process(raw)
	if err != nil {
		return "", domain.Validationf("invalid image: %v", err)
	}
	path, err := s.Store.Store(processed, "items")
	if err != nil {
		return "", fmt.Errorf("storing image: %w", err)
	}
	return path, nil
}

func (s *ItemService) audit(userID int64, action, description, entityType string, entityID int64, before, after any) {
	if s.Audit == nil {
		return
	}
	_ = s.Audit.Record(userID, action, description, entityType, entityID, before, after)
}
