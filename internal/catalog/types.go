package catalog

import (
	"slices"

	"github.com/goliatone/go-bulk/internal/domain"
)

// ActionID identifies an administrative action.
type ActionID string

const (
	ActionPublish        ActionID = "publish"
	ActionUnpublish      ActionID = "unpublish"
	ActionArchive        ActionID = "archive"
	ActionRestore        ActionID = "restore"
	ActionFeature        ActionID = "feature"
	ActionUnfeature      ActionID = "unfeature"
	ActionDelete         ActionID = "delete"
	ActionChangeCategory ActionID = "change_category"
	ActionSendEmail      ActionID = "send_email"
)

// FieldType enumerates the input value types an action can declare.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
)

// InputField declares one input an action needs from the admin.
type InputField struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Enum     []string
}

// Item is the engine's view of a host content item. Only the identifier is
// required; status and featured flag feed applicability checks.
type Item struct {
	ID         string
	Status     domain.Status
	Featured   bool
	Attributes map[string]any
}

// Applicability reports whether an action is meaningful for an item.
type Applicability func(Item) bool

// ActionDescriptor describes an action permitted on a content type.
type ActionDescriptor struct {
	ID          ActionID
	Label       string
	Icon        string
	Destructive bool
	InputSchema []InputField
	// Inverse names the action that undoes this one on the same item set.
	Inverse ActionID
	// Idempotent marks actions that are safe to retry without an idempotency key.
	Idempotent bool
	AppliesTo  Applicability
}

// HasInverse reports whether an undo action is declared.
func (d ActionDescriptor) HasInverse() bool {
	return d.Inverse != ""
}

// Applies evaluates the applicability predicate. Actions without a
// predicate apply to every item.
func (d ActionDescriptor) Applies(item Item) bool {
	if d.AppliesTo == nil {
		return true
	}
	return d.AppliesTo(item)
}

// RequiredFields returns the required inputs in declaration order.
func (d ActionDescriptor) RequiredFields() []InputField {
	out := make([]InputField, 0, len(d.InputSchema))
	for _, field := range d.InputSchema {
		if field.Required {
			out = append(out, field)
		}
	}
	return out
}

func (d ActionDescriptor) clone() ActionDescriptor {
	cloned := d
	if d.InputSchema != nil {
		cloned.InputSchema = make([]InputField, len(d.InputSchema))
		for i, field := range d.InputSchema {
			field.Enum = slices.Clone(field.Enum)
			cloned.InputSchema[i] = field
		}
	}
	return cloned
}

// WhenStatus applies to items in any of the supplied statuses.
func WhenStatus(statuses ...domain.Status) Applicability {
	return func(item Item) bool {
		return slices.Contains(statuses, domain.NormalizeStatus(string(item.Status)))
	}
}

// UnlessStatus applies to items in none of the supplied statuses.
func UnlessStatus(statuses ...domain.Status) Applicability {
	return func(item Item) bool {
		return !slices.Contains(statuses, domain.NormalizeStatus(string(item.Status)))
	}
}

// WhenFeatured applies to items whose featured flag matches.
func WhenFeatured(featured bool) Applicability {
	return func(item Item) bool {
		return item.Featured == featured
	}
}

// Both combines predicates with a logical AND.
func Both(left, right Applicability) Applicability {
	return func(item Item) bool {
		return (left == nil || left(item)) && (right == nil || right(item))
	}
}
