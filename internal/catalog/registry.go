package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-slug"
)

var (
	ErrContentTypeRequired = errors.New("catalog: content type is required")
	ErrActionIDRequired    = errors.New("catalog: action id is required")
	ErrActionLabelRequired = errors.New("catalog: action label is required")
	ErrDuplicateAction     = errors.New("catalog: action already registered")
	ErrInverseUnknown      = errors.New("catalog: inverse action is not registered for content type")
	ErrInverseSelf         = errors.New("catalog: action cannot be its own inverse")
)

// Registry maps content types to the actions admins may run on them.
type Registry struct {
	mu      sync.RWMutex
	actions map[string][]ActionDescriptor
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string][]ActionDescriptor)}
}

// NormalizeContentType trims and slugifies a content type key.
func NormalizeContentType(contentType string) string {
	trimmed := strings.TrimSpace(contentType)
	if trimmed == "" {
		return ""
	}
	normalized, err := slug.Normalize(trimmed)
	if err != nil || normalized == "" {
		return strings.ToLower(trimmed)
	}
	return normalized
}

// Register appends actions to a content type. The call is atomic: when any
// descriptor is invalid or an inverse cannot be resolved nothing is stored.
func (r *Registry) Register(contentType string, actions ...ActionDescriptor) error {
	key := NormalizeContentType(contentType)
	if key == "" {
		return ErrContentTypeRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := make([]ActionDescriptor, 0, len(r.actions[key])+len(actions))
	merged = append(merged, r.actions[key]...)
	seen := make(map[ActionID]struct{}, len(merged)+len(actions))
	for _, existing := range merged {
		seen[existing.ID] = struct{}{}
	}

	for _, action := range actions {
		action.ID = ActionID(strings.TrimSpace(string(action.ID)))
		action.Label = strings.TrimSpace(action.Label)
		if action.ID == "" {
			return ErrActionIDRequired
		}
		if action.Label == "" {
			return fmt.Errorf("%w: %s", ErrActionLabelRequired, action.ID)
		}
		if _, ok := seen[action.ID]; ok {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateAction, key, action.ID)
		}
		if action.Inverse == action.ID {
			return fmt.Errorf("%w: %s", ErrInverseSelf, action.ID)
		}
		seen[action.ID] = struct{}{}
		merged = append(merged, action.clone())
	}

	for _, action := range merged {
		if !action.HasInverse() {
			continue
		}
		if _, ok := seen[action.Inverse]; !ok {
			return fmt.Errorf("%w: %s/%s -> %s", ErrInverseUnknown, key, action.ID, action.Inverse)
		}
	}

	r.actions[key] = merged
	return nil
}

// AvailableActions returns the actions registered for the content type in
// registration order. Unknown content types yield an empty slice.
func (r *Registry) AvailableActions(contentType string) []ActionDescriptor {
	if r == nil {
		return []ActionDescriptor{}
	}
	key := NormalizeContentType(contentType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := r.actions[key]
	out := make([]ActionDescriptor, len(actions))
	for i, action := range actions {
		out[i] = action.clone()
	}
	return out
}

// Lookup resolves a single action for a content type.
func (r *Registry) Lookup(contentType string, id ActionID) (ActionDescriptor, bool) {
	if r == nil {
		return ActionDescriptor{}, false
	}
	key := NormalizeContentType(contentType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, action := range r.actions[key] {
		if action.ID == id {
			return action.clone(), true
		}
	}
	return ActionDescriptor{}, false
}

// InverseOf resolves the inverse descriptor of action, when declared.
func (r *Registry) InverseOf(contentType string, action ActionDescriptor) (*ActionDescriptor, bool) {
	if !action.HasInverse() {
		return nil, false
	}
	inverse, ok := r.Lookup(contentType, action.Inverse)
	if !ok {
		return nil, false
	}
	return &inverse, true
}

// ContentTypes lists the registered content type keys sorted alphabetically.
func (r *Registry) ContentTypes() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.actions))
	for key := range r.actions {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
