package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared because validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims text fields and tags in place.
func (in *TaskInput) Normalize() {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		in.Description = &desc
	}
	if in.Tags != nil {
		in.Tags = NormalizeTags(in.Tags)
	}
}

// ValidateCreate checks a create payload; a title is required.
func (in TaskInput) ValidateCreate() error {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return ErrInvalidTitle
	}
	return in.ValidateUpdate()
}

// ValidateUpdate checks an update payload where every field is optional.
func (in TaskInput) ValidateUpdate() error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return ErrInvalidTitle
	}
	if err := validate.Struct(in); err != nil {
		return mapValidationError(err)
	}
	return nil
}

// Empty reports whether no field is set.
func (in TaskInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.Status == nil &&
		in.Priority == nil && in.DueDate == nil && in.Tags == nil
}

// mapValidationError maps validator field errors onto domain sentinels.
func mapValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	first := verrs[0]
	switch first.StructField() {
	case "Title":
		return fmt.Errorf("%w: %s", ErrInvalidTitle, first.Tag())
	case "Status":
		return fmt.Errorf("%w: %v", ErrInvalidStatus, first.Value())
	case "Priority":
		return fmt.Errorf("%w: %v", ErrInvalidPriority, first.Value())
	default:
		return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, first.Namespace(), first.Tag())
	}
}
