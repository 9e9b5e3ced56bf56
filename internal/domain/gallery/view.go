package gallery

import "context"

// CategoryButton is one entry of the category filter bar.
type CategoryButton struct {
	Slug   string `json:"slug"`
	Label  string `json:"label"`
	Color  string `json:"color"`
	Active bool   `json:"active"`
}

// BackfillState is the coarse phase of a metadata backfill run as exposed
// to the presentation surface.
type BackfillState string

const (
	BackfillIdle             BackfillState = "idle"
	BackfillFetchingSource   BackfillState = "fetching_source"
	BackfillEncodingImages   BackfillState = "encoding_images"
	BackfillAwaitingResponse BackfillState = "awaiting_ai_response"
	BackfillReconciling      BackfillState = "reconciling"
	BackfillSuccess          BackfillState = "success"
	BackfillPartialMismatch  BackfillState = "partial_mismatch"
	BackfillFailed           BackfillState = "failed"
)

// BackfillStatus is the single user-facing status line for the backfill
// pipeline, plus the progress tick driving the in-progress indicator.
type BackfillStatus struct {
	State   BackfillState `json:"state"`
	Message string        `json:"message"`
	Running bool          `json:"running"`
	Tick    int           `json:"tick"`
}

// View is the complete render input for one gallery draw: what the
// presentation surface needs and nothing it does not. Records are value
// copies taken under the engine lock, so a surface may hold a View without
// racing subsequent mutations.
type View struct {
	Mode              ViewMode         `json:"view_mode"`
	LogicalPage       int              `json:"logical_page"`
	TotalLogicalPages int              `json:"total_logical_pages"`
	TotalAPIPages     int              `json:"total_api_pages"`
	ActiveCategory    string           `json:"active_category"`
	Categories        []CategoryButton `json:"categories"`
	Records           []ImageRecord    `json:"records"`
	Backfill          BackfillStatus   `json:"backfill"`
}

// VisibleIDs returns the ordered record ids of the view. Primarily a test
// and logging convenience.
func (v *View) VisibleIDs() []string {
	ids := make([]string, len(v.Records))
	for i, r := range v.Records {
		ids[i] = r.ID
	}
	return ids
}

// Renderer is the presentation surface adapter. The engine clears and
// repopulates the surface by handing it a fresh View after every state
// change; implementations must treat the call as idempotent for identical
// views.
type Renderer interface {
	Apply(ctx context.Context, view *View)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, view *View)

func (f RendererFunc) Apply(ctx context.Context, view *View) { f(ctx, view) }

// LikeStore persists the set of image ids the local user has liked. The
// set survives process restarts; an id is present iff the corresponding
// record's likes count carries this client's +1.
type LikeStore interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
	All(ctx context.Context) ([]string, error)
}
