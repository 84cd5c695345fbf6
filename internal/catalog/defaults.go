package catalog

import "github.com/goliatone/go-bulk/internal/domain"

// Content types served by the default catalog.
const (
	ContentTypeEvent        = "event"
	ContentTypeSermon       = "sermon"
	ContentTypeAnnouncement = "announcement"
	ContentTypePage         = "page"
	ContentTypeRSVP         = "rsvp"
	ContentTypeMember       = "member"
)

// Publish makes items visible on the public site.
func Publish() ActionDescriptor {
	return ActionDescriptor{
		ID:         ActionPublish,
		Label:      "Publish",
		Icon:       "eye",
		Inverse:    ActionUnpublish,
		Idempotent: true,
		AppliesTo:  UnlessStatus(domain.StatusPublished, domain.StatusDeleted),
	}
}

// Unpublish hides published items.
func Unpublish() ActionDescriptor {
	return ActionDescriptor{
		ID:          ActionUnpublish,
		Label:       "Unpublish",
		Icon:        "eye-off",
		Destructive: true,
		Inverse:     ActionPublish,
		Idempotent:  true,
		AppliesTo:   WhenStatus(domain.StatusPublished),
	}
}

// Archive retires items from listings.
func Archive() ActionDescriptor {
	return ActionDescriptor{
		ID:          ActionArchive,
		Label:       "Archive",
		Icon:        "archive",
		Destructive: true,
		Inverse:     ActionRestore,
		Idempotent:  true,
		AppliesTo:   UnlessStatus(domain.StatusArchived, domain.StatusDeleted),
	}
}

// Restore brings archived items back as drafts.
func Restore() ActionDescriptor {
	return ActionDescriptor{
		ID:         ActionRestore,
		Label:      "Restore",
		Icon:       "rotate-ccw",
		Inverse:    ActionArchive,
		Idempotent: true,
		AppliesTo:  WhenStatus(domain.StatusArchived),
	}
}

// Feature pins items to highlighted slots.
func Feature() ActionDescriptor {
	return ActionDescriptor{
		ID:         ActionFeature,
		Label:      "Feature",
		Icon:       "star",
		Inverse:    ActionUnfeature,
		Idempotent: true,
		AppliesTo:  Both(WhenFeatured(false), UnlessStatus(domain.StatusDeleted)),
	}
}

// Unfeature removes items from highlighted slots.
func Unfeature() ActionDescriptor {
	return ActionDescriptor{
		ID:         ActionUnfeature,
		Label:      "Unfeature",
		Icon:       "star-off",
		Inverse:    ActionFeature,
		Idempotent: true,
		AppliesTo:  WhenFeatured(true),
	}
}

// Delete removes items. It has no inverse.
func Delete() ActionDescriptor {
	return ActionDescriptor{
		ID:          ActionDelete,
		Label:       "Delete",
		Icon:        "trash",
		Destructive: true,
		Idempotent:  true,
		AppliesTo:   UnlessStatus(domain.StatusDeleted),
	}
}

// ChangeCategory moves items to another category.
func ChangeCategory() ActionDescriptor {
	return ActionDescriptor{
		ID:         ActionChangeCategory,
		Label:      "Change category",
		Icon:       "folder",
		Idempotent: true,
		InputSchema: []InputField{
			{Name: "category", Label: "Category", Type: FieldString, Required: true},
		},
	}
}

// SendEmail mails the selected records. It is not idempotent, so transient
// failures are only retried when the request carries an idempotency key.
func SendEmail() ActionDescriptor {
	return ActionDescriptor{
		ID:    ActionSendEmail,
		Label: "Send email",
		Icon:  "mail",
		InputSchema: []InputField{
			{Name: "subject", Label: "Subject", Type: FieldString, Required: true},
			{Name: "body", Label: "Body", Type: FieldString, Required: true},
			{Name: "priority", Label: "Priority", Type: FieldString, Enum: []string{"low", "normal", "high"}},
		},
	}
}

// Default returns the registry used by the admin panel when hosts do not
// supply their own catalog.
func Default() *Registry {
	registry := NewRegistry()
	publishable := []ActionDescriptor{
		Publish(), Unpublish(), Archive(), Restore(), Feature(), Unfeature(), Delete(), ChangeCategory(),
	}
	for _, contentType := range []string{ContentTypeEvent, ContentTypeSermon, ContentTypeAnnouncement, ContentTypePage} {
		mustRegister(registry, contentType, publishable...)
	}
	mustRegister(registry, ContentTypeRSVP, Archive(), Restore(), Delete(), SendEmail())
	mustRegister(registry, ContentTypeMember, SendEmail(), Archive(), Restore())
	return registry
}

func mustRegister(registry *Registry, contentType string, actions ...ActionDescriptor) {
	if err := registry.Register(contentType, actions...); err != nil {
		panic(err)
	}
}
