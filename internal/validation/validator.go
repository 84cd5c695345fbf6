package validation

import (
	"fmt"
	"strings"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-bulk/internal/catalog"
)

const (
	msgNoSelection     = "No items selected"
	msgSelectionLimit  = "Selection exceeds the maximum of %d items"
	msgNotApplicable   = "Action %s does not apply to any selected item"
	msgFieldRequired   = "Field %s is required"
	msgFieldInvalid    = "Field %s is invalid: %s"
	defaultMaxSelected = 100
)

// Validator gates batch execution. It is pure: no I/O, no mutation of its
// inputs, safe to call on every selection change.
type Validator struct {
	maxSelection int
	schemas      *schemaCache
}

// NewValidator constructs a validator enforcing maxSelection in rule 2.
func NewValidator(maxSelection int) *Validator {
	if maxSelection <= 0 {
		maxSelection = defaultMaxSelected
	}
	return &Validator{
		maxSelection: maxSelection,
		schemas:      newSchemaCache(),
	}
}

// Validate returns human readable errors in a fixed rule order. An empty
// slice means the action may run.
//
//  1. selection non-empty
//  2. selection within the cap
//  3. destructive actions must apply to at least one selected item
//  4. required inputs present
//  5. present inputs match their declared type
func (v *Validator) Validate(action catalog.ActionDescriptor, selectedIDs []string, items []catalog.Item, input map[string]any) []string {
	errs := []string{}

	if len(selectedIDs) == 0 {
		errs = append(errs, msgNoSelection)
	}
	if len(selectedIDs) > v.maxSelection {
		errs = append(errs, fmt.Sprintf(msgSelectionLimit, v.maxSelection))
	}
	if action.Destructive && len(selectedIDs) > 0 && !appliesToAny(action, selectedIDs, items) {
		errs = append(errs, fmt.Sprintf(msgNotApplicable, actionName(action)))
	}

	missing := make(map[string]struct{})
	for _, field := range action.RequiredFields() {
		if isMissing(field, input) {
			missing[field.Name] = struct{}{}
			errs = append(errs, fmt.Sprintf(msgFieldRequired, field.Name))
		}
	}

	for _, issue := range v.schemas.check(action, input) {
		if _, ok := missing[issue.field]; ok {
			continue
		}
		errs = append(errs, fmt.Sprintf(msgFieldInvalid, issue.field, issue.message))
	}
	return errs
}

func appliesToAny(action catalog.ActionDescriptor, selectedIDs []string, items []catalog.Item) bool {
	byID := make(map[string]catalog.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, id := range selectedIDs {
		item, ok := byID[id]
		if !ok {
			continue
		}
		if action.Applies(item) {
			return true
		}
	}
	return false
}

func isMissing(field catalog.InputField, input map[string]any) bool {
	value, ok := input[field.Name]
	if !ok || value == nil {
		return true
	}
	switch field.Type {
	case catalog.FieldBoolean, catalog.FieldNumber, catalog.FieldInteger:
		// zero values are legitimate answers
		return false
	}
	if str, ok := value.(string); ok {
		value = strings.TrimSpace(str)
	}
	return ozzo.Validate(value, ozzo.Required) != nil
}

func actionName(action catalog.ActionDescriptor) string {
	if action.Label != "" {
		return action.Label
	}
	return string(action.ID)
}
