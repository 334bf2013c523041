package domain

import (
	"strings"
)

var validStatuses = map[Status]bool{
	StatusPre: true, StatusIn: true, StatusPost: true, StatusNews: true,
}

// ParseSport normalises a league name ("NBA", " nfl ") into a Sport.
func ParseSport(s string) (Sport, error) {
	sp := Sport(strings.ToLower(strings.TrimSpace(s)))
	if !ValidSports[sp] {
		return "", NewValidationError("sport", s, ErrUnknownSport)
	}
	return sp, nil
}

// ValidateMetadata checks the identity fields of a metadata record before it
// is handed to a store. Empty status is allowed for games whose feed omits it.
func ValidateMetadata(m SportsMetadata) error {
	if !ValidSports[m.Sport] {
		return NewValidationError("sport", string(m.Sport), ErrUnknownSport)
	}
	if !ValidContentTypes[m.ContentType] {
		return NewValidationError("content_type", string(m.ContentType), ErrUnknownContentType)
	}
	if m.Status != "" && !validStatuses[m.Status] {
		return NewValidationError("status", string(m.Status), ErrUnknownStatus)
	}
	if m.ContentHash == "" {
		return NewValidationError("content_hash", "", ErrMissingContentHash)
	}
	return nil
}

// ValidateCard checks a knowledge card.
func ValidateCard(c KnowledgeCard) error {
	if strings.TrimSpace(c.ID) == "" {
		return NewValidationError("id", c.ID, ErrMalformedRecord)
	}
	return ValidateMetadata(c.Metadata)
}
