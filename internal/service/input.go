package service

import "strings"

// nonEmpty maps "" to nil for optional text columns.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
