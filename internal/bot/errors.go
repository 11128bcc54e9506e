package bot

import (
	"errors"

	"library/internal/domain"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, domain.ErrUnavailable) {
		return "⚠️ Sorry, all copies of this book are borrowed right now. Please try again later."
	}

	if errors.Is(err, domain.ErrValidation) {
		return "⚠️ The request is invalid: the expected return date cannot be in the past."
	}

	if errors.Is(err, domain.ErrAlreadyReturned) {
		return "⚠️ This book has already been returned."
	}

	if errors.Is(err, domain.ErrForbidden) {
		return "⚠️ Only the reader who borrowed the book can return it."
	}

	if errors.Is(err, domain.ErrNotFound) {
		return "⚠️ Nothing found with this id."
	}

	if errors.Is(err, domain.ErrGateway) {
		return "⚠️ The payment service is unavailable right now. Please try again later."
	}

	// Default error message
	return "❌ Something went wrong while processing your request. Please try again later or contact the library staff."
}
