package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	TitleMinLength       = 5
	TitleMaxLength       = 100
	DescriptionMinLength = 20
	DescriptionMaxLength = 2000
	PriceMin             = 1
	PriceMax             = 50000
	MaxImagesPerListing  = 5
	MessageMaxLength     = 2000
	RejectionReasonMax   = 500
)

// ValidateListingTitle enforces title length bounds after trimming.
func ValidateListingTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < TitleMinLength || n > TitleMaxLength {
		return fmt.Errorf("title must be %d-%d characters", TitleMinLength, TitleMaxLength)
	}
	return nil
}

// ValidateListingDescription enforces description length bounds after trimming.
func ValidateListingDescription(desc string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(desc))
	if n < DescriptionMinLength || n > DescriptionMaxLength {
		return fmt.Errorf("description must be %d-%d characters", DescriptionMinLength, DescriptionMaxLength)
	}
	return nil
}

// ValidateListingPrice enforces the allowed price range.
func ValidateListingPrice(price float64) error {
	if price < PriceMin || price > PriceMax {
		return fmt.Errorf("price must be between %d and %d", PriceMin, PriceMax)
	}
	return nil
}

// ValidateMessageContent rejects empty or oversized chat messages.
func ValidateMessageContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("message cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > MessageMaxLength {
		return fmt.Errorf("message must be at most %d characters", MessageMaxLength)
	}
	return nil
}
