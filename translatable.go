package translatable

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Model carries the per-instance resolution state for a translatable entity.
// Embed it in the parent struct alongside bun.BaseModel; it holds no
// persisted columns.
type Model struct {
	pinned string
	raw    bool
}

// PinnedLocale returns the locale pinned on this instance, or an empty string
// when resolution should use the ambient locale context.
func (m *Model) PinnedLocale() string {
	if m == nil {
		return ""
	}
	return m.pinned
}

func (m *Model) pin(code string) {
	if m == nil {
		return
	}
	m.pinned = strings.TrimSpace(code)
}

func (m *Model) rawData() bool {
	return m != nil && m.raw
}

func (m *Model) setRawData(enabled bool) {
	if m == nil {
		return
	}
	m.raw = enabled
}

// ModelHandlers wires a parent type and its overlay type into the engine
// without reflection on the hot path. Every handler is required.
type ModelHandlers[T any, O any] struct {
	// Model returns the embedded per-instance state of the parent.
	Model func(*T) *Model

	// NewOverlay builds an empty overlay record.
	NewOverlay func() *O

	ParentID    func(*T) uuid.UUID
	SetParentID func(*T, uuid.UUID)

	OverlayID    func(*O) uuid.UUID
	SetOverlayID func(*O, uuid.UUID)

	OverlayParentID    func(*O) uuid.UUID
	SetOverlayParentID func(*O, uuid.UUID)

	OverlayLocale    func(*O) string
	SetOverlayLocale func(*O, string)

	// Overlays and SetOverlays expose the parent's loaded overlay
	// collection. The engine only ever scans or appends; it never queries.
	Overlays    func(*T) []*O
	SetOverlays func(*T, []*O)

	// ParentValue and OverlayValue read a translated attribute by name.
	ParentValue     func(*T, string) any
	SetParentValue  func(*T, string, any)
	OverlayValue    func(*O, string) any
	SetOverlayValue func(*O, string, any)
}

func (h ModelHandlers[T, O]) validate() error {
	missing := []string{}
	if h.Model == nil {
		missing = append(missing, "Model")
	}
	if h.NewOverlay == nil {
		missing = append(missing, "NewOverlay")
	}
	if h.ParentID == nil {
		missing = append(missing, "ParentID")
	}
	if h.SetParentID == nil {
		missing = append(missing, "SetParentID")
	}
	if h.OverlayID == nil {
		missing = append(missing, "OverlayID")
	}
	if h.SetOverlayID == nil {
		missing = append(missing, "SetOverlayID")
	}
	if h.OverlayParentID == nil {
		missing = append(missing, "OverlayParentID")
	}
	if h.SetOverlayParentID == nil {
		missing = append(missing, "SetOverlayParentID")
	}
	if h.OverlayLocale == nil {
		missing = append(missing, "OverlayLocale")
	}
	if h.SetOverlayLocale == nil {
		missing = append(missing, "SetOverlayLocale")
	}
	if h.Overlays == nil {
		missing = append(missing, "Overlays")
	}
	if h.SetOverlays == nil {
		missing = append(missing, "SetOverlays")
	}
	if h.ParentValue == nil {
		missing = append(missing, "ParentValue")
	}
	if h.SetParentValue == nil {
		missing = append(missing, "SetParentValue")
	}
	if h.OverlayValue == nil {
		missing = append(missing, "OverlayValue")
	}
	if h.SetOverlayValue == nil {
		missing = append(missing, "SetOverlayValue")
	}
	if len(missing) > 0 {
		return fmt.Errorf("translatable: model handlers missing %s", strings.Join(missing, ", "))
	}
	return nil
}
