package suppliers

import (
	"errors"
	"strings"
)

func (s *Service) validate(sup Supplier) error {
	if strings.TrimSpace(sup.Name) == "" {
		return errors.New("supplier name is required")
	}
	if strings.TrimSpace(sup.Contact) == "" {
		return errors.New("supplier contact is required")
	}
	if sup.LeadTimeDays < 0 {
		return errors.New("lead time must be non-negative")
	}
	return nil
}
