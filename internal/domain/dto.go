package domain

// SelectPipelineRequest switches the dashboard to a different pipeline.
// The id mirrors the frontend's URL query parameter, which remains the
// sole source of truth for the active pipeline.
type SelectPipelineRequest struct {
	PipelineID string       `json:"pipeline_id" validate:"required"`
	Type       PipelineType `json:"type,omitempty" validate:"omitempty,oneof=normal leadpool meta agency profile"`
}

// SelectStageRequest activates a stage filter within the current pipeline.
type SelectStageRequest struct {
	StageID string `json:"stage_id" validate:"required"`
}

// CreateStageRequest adds a stage to a pipeline.
type CreateStageRequest struct {
	PipelineID string `json:"pipeline_id" validate:"required"`
	Name       string `json:"name" validate:"required,max=120"`
	Color      string `json:"color,omitempty" validate:"omitempty,max=32"`
	Position   int    `json:"position" validate:"gte=0"`
}

// UpdateStageRequest renames/recolors/repositions a stage.
type UpdateStageRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Color    string `json:"color,omitempty" validate:"omitempty,max=32"`
	Position int    `json:"position" validate:"gte=0"`
}

// CreateContactRequest creates a single contact in a known stage. Used by
// the quick-add form; the stage's count is bumped optimistically until
// the next authoritative recount.
type CreateContactRequest struct {
	PipelineID string `json:"pipeline_id" validate:"required"`
	StageID    string `json:"stage_id" validate:"required"`
	FirstName  string `json:"first_name" validate:"required,max=120"`
	LastName   string `json:"last_name,omitempty" validate:"omitempty,max=120"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Company    string `json:"company,omitempty" validate:"omitempty,max=200"`
}

// TransferRequest moves customers into a stage of an agency pipeline.
type TransferRequest struct {
	CustomerIDs      []string `json:"customer_ids" validate:"required,min=1,dive,required"`
	AgencyPipelineID string   `json:"agency_pipeline_id" validate:"required"`
	TargetStageID    string   `json:"target_stage_id" validate:"required"`
}

// ToggleSelectionRequest toggles one contact row checkbox.
type ToggleSelectionRequest struct {
	ContactID string `json:"contact_id" validate:"required"`
}

// ViewState is the full dashboard snapshot served to the frontend. All
// contact/stage data in it has already passed the identity gate; while
// IsContentLoading is true the frontend renders a loading state instead.
type ViewState struct {
	PipelineID       string         `json:"pipeline_id"`
	Pipeline         *Pipeline      `json:"pipeline,omitempty"`
	Pipelines        []Pipeline     `json:"pipelines"`
	Stages           []Stage        `json:"stages"`
	Contacts         []Contact      `json:"contacts"`
	StageCounts      map[string]int `json:"stage_counts"`
	ActiveStageID    string         `json:"active_stage_id,omitempty"`
	SelectedContacts []string       `json:"selected_contacts"`
	IsContentLoading bool           `json:"is_content_loading"`
	IsLoadingCounts  bool           `json:"is_loading_counts"`
	Error            string         `json:"error,omitempty"`
}
