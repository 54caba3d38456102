package sync

import (
	"context"
	stdsync "sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AliAon/FixFixnanz-sub000/internal/derive"
	"github.com/AliAon/FixFixnanz-sub000/internal/domain"
	"github.com/AliAon/FixFixnanz-sub000/internal/notify"
	"github.com/AliAon/FixFixnanz-sub000/internal/store"
)

// TransferAPI is the slice of the remote client the controller needs
// for bulk agency transfers.
type TransferAPI interface {
	TransferToAgencyStage(ctx context.Context, req *domain.TransferRequest) (*domain.TransferResult, error)
}

// Controller orchestrates the dashboard's load sequences. It owns the
// switch lifecycle: exactly one pipeline switch is live at a time, a new
// switch cancels the previous one, and completion is only recorded when
// the identity captured at switch start still matches.
type Controller struct {
	consultantID string

	pipelines *store.PipelineStore
	stages    *store.StageStore
	contacts  *store.ContactStore
	counts    *CountAggregator
	tracker   *IdentityTracker
	selection *Selection
	transfers TransferAPI
	notifier  notify.Notifier
	logger    *zap.Logger

	mu           stdsync.Mutex
	cancelSwitch context.CancelFunc
	background   stdsync.WaitGroup
}

// NewController wires the sync layer together.
func NewController(
	consultantID string,
	pipelines *store.PipelineStore,
	stages *store.StageStore,
	contacts *store.ContactStore,
	counts *CountAggregator,
	transfers TransferAPI,
	notifier notify.Notifier,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		consultantID: consultantID,
		pipelines:    pipelines,
		stages:       stages,
		contacts:     contacts,
		counts:       counts,
		tracker:      NewIdentityTracker(),
		selection:    NewSelection(),
		transfers:    transfers,
		notifier:     notifier,
		logger:       logger,
	}
}

// LoadPipelines refreshes the consultant's pipeline list for one type
// partition. Independent of the per-pipeline switch lifecycle.
func (c *Controller) LoadPipelines(ctx context.Context, pipelineType domain.PipelineType) error {
	if err := c.pipelines.FetchAll(ctx, pipelineType); err != nil {
		c.notifier.Error(domain.UserMessage(err))
		return err
	}
	return nil
}

// SelectPipeline runs the full switch sequence for one pipeline id:
// clear the per-pipeline state, cancel the previous switch, fetch the
// pipeline and its stages in parallel, load the first stage's contacts,
// then recount stages in the background. Selecting the id whose switch
// is already in progress is a no-op.
//
// A failed fetch still completes the sequence when the identity matches:
// the dashboard must leave its loading state and show the empty state
// with the error, never spin forever.
func (c *Controller) SelectPipeline(ctx context.Context, pipelineID string) error {
	if !c.tracker.Begin(pipelineID) {
		return nil
	}

	// The captured identity travels with every fetch of this sequence.
	captured := pipelineID

	// Cancel the superseded switch before clearing: its fetches must be
	// dead by the time the stores reset, so one can never settle into
	// the freshly cleared state.
	switchCtx := c.beginSwitch(ctx)

	c.contacts.Clear()
	c.stages.Clear()
	c.counts.Clear()
	c.selection.Reset()

	g, gctx := errgroup.WithContext(switchCtx)
	g.Go(func() error {
		_, err := c.pipelines.FetchByID(gctx, captured)
		return err
	})
	g.Go(func() error {
		return c.stages.FetchForPipeline(gctx, captured)
	})
	if err := g.Wait(); err != nil {
		if switchCtx.Err() != nil {
			// Superseded by a newer switch; nothing to report.
			return nil
		}
		c.notifier.Error(domain.UserMessage(err))
		c.tracker.Complete(captured)
		return err
	}

	if first := c.stages.First(); first != nil {
		c.selection.SetActiveStage(first.ID)
		if err := c.contacts.FetchForStage(switchCtx, c.consultantID, first.ID); err != nil {
			if switchCtx.Err() != nil {
				return nil
			}
			c.notifier.Error(domain.UserMessage(err))
			c.tracker.Complete(captured)
			return err
		}
	}

	if !c.tracker.Complete(captured) {
		c.logger.Debug("discarded stale pipeline switch",
			zap.String("captured_pipeline_id", captured),
			zap.String("loading_pipeline_id", c.tracker.LoadingPipeline()),
		)
		return nil
	}

	// Counts settle after the content: the dashboard renders contacts as
	// soon as they are loaded and fills the headers when the batch joins.
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		stages := c.stages.Snapshot()
		c.counts.LoadAll(switchCtx, stages, c.consultantID, captured)
	}()

	return nil
}

// SelectStage activates a stage filter and loads its contacts. Clicking
// the already-active stage is a no-op.
func (c *Controller) SelectStage(ctx context.Context, stageID string) error {
	if !c.selection.SetActiveStage(stageID) {
		return nil
	}

	if err := c.contacts.FetchForStage(ctx, c.consultantID, stageID); err != nil {
		c.notifier.Error(domain.UserMessage(err))
		return err
	}
	return nil
}

// CreateContact creates one contact in the given stage and bumps that
// stage's count optimistically.
func (c *Controller) CreateContact(ctx context.Context, req *domain.CreateContactRequest) (*domain.RawContactRecord, error) {
	record, err := c.contacts.Create(ctx, req)
	if err != nil {
		c.notifier.Error(domain.UserMessage(err))
		return nil, err
	}

	c.counts.Bump(req.StageID, 1)
	c.notifier.Success("Contact created")
	return record, nil
}

// RecordImport applies a completed bulk import to the local state: the
// target stage's count is bumped by the imported amount and an
// authoritative recount is scheduled.
func (c *Controller) RecordImport(ctx context.Context, result *domain.ImportResult) {
	c.counts.Bump(result.StageID, result.ImportedCount)

	if result.StageID == c.selection.ActiveStage() {
		if err := c.contacts.FetchForStage(ctx, c.consultantID, result.StageID); err != nil {
			c.logger.Warn("post-import contact refresh failed", zap.Error(err))
		}
	}

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		c.RefreshCounts(context.WithoutCancel(ctx))
	}()
}

// Transfer moves the given customers into a stage of an agency pipeline
// and drops them from the local selection.
func (c *Controller) Transfer(ctx context.Context, req *domain.TransferRequest) (*domain.TransferResult, error) {
	result, err := c.transfers.TransferToAgencyStage(ctx, req)
	if err != nil {
		c.notifier.Error(domain.UserMessage(err))
		return nil, err
	}

	active := c.selection.ActiveStage()
	c.selection.Reset()
	c.selection.SetActiveStage(active)
	c.notifier.Success("Customers transferred")

	// Transferred customers left their source stage; recount.
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		c.RefreshCounts(context.WithoutCancel(ctx))
	}()
	return result, nil
}

// ToggleContact flips one row checkbox.
func (c *Controller) ToggleContact(contactID string) {
	c.selection.Toggle(contactID)
}

// ToggleAllContacts applies the select-all checkbox over the currently
// visible contacts.
func (c *Controller) ToggleAllContacts() {
	records := c.contacts.Snapshot()
	ids := make([]string, 0, len(records))
	for i := range records {
		ids = append(ids, contactID(&records[i]))
	}
	c.selection.ToggleAll(ids)
}

// RefreshCounts recomputes every stage's count from the server. Also
// invoked by the periodic refresh job.
func (c *Controller) RefreshCounts(ctx context.Context) {
	pipelineID := c.tracker.SelectedPipeline()
	if pipelineID == "" {
		return
	}
	c.counts.LoadAll(ctx, c.stages.Snapshot(), c.consultantID, pipelineID)
}

// ViewState assembles the full dashboard snapshot. Contact output is
// gated twice: the tracker decides whether content renders as loading,
// and the deriver independently re-verifies the identity before
// producing rows.
func (c *Controller) ViewState() *domain.ViewState {
	pipelineID := c.tracker.SelectedPipeline()
	current := c.pipelines.Current()

	dctx := derive.Context{
		HasDataLoaded: c.tracker.HasDataLoaded(),
		IdentityMatch: c.tracker.Matches(pipelineID),
		Status:        derive.PipelineStatus,
	}
	if current != nil {
		dctx.PipelineName = current.Name
		dctx.PipelineSource = current.Source
		if current.Type == domain.PipelineTypeLeadpool {
			dctx.Status = derive.LeadpoolStatus
		}
	}

	state := &domain.ViewState{
		PipelineID:       pipelineID,
		Pipeline:         current,
		Pipelines:        c.pipelines.Snapshot(),
		Stages:           c.stages.Snapshot(),
		Contacts:         derive.Contacts(c.contacts.Snapshot(), dctx, c.logger),
		StageCounts:      c.counts.Snapshot(),
		ActiveStageID:    c.selection.ActiveStage(),
		SelectedContacts: c.selection.Selected(),
		IsContentLoading: c.tracker.IsContentLoading(),
		IsLoadingCounts:  c.counts.IsLoading(),
		Error:            c.firstError(),
	}
	return state
}

// Wait blocks until in-flight background recounts have settled. Called
// during shutdown so a recount never runs against torn-down state.
func (c *Controller) Wait() {
	c.background.Wait()
}

// PipelineSnapshot returns the current pipeline list. Used by the
// periodic snapshot job.
func (c *Controller) PipelineSnapshot() []domain.Pipeline {
	return c.pipelines.Snapshot()
}

// SeedPipelines warms the pipeline list from the local snapshot cache
// at startup. A list that has already been fetched is left alone.
func (c *Controller) SeedPipelines(pipelines []domain.Pipeline) {
	c.pipelines.Seed(pipelines)
}

// Tracker exposes the identity tracker, mainly for the health endpoint.
func (c *Controller) Tracker() *IdentityTracker {
	return c.tracker
}

// beginSwitch cancels the previous switch and returns the context of
// the new one. The switch context is detached from the caller's request
// lifetime: a switch outlives the HTTP request that started it and dies
// only when superseded.
func (c *Controller) beginSwitch(ctx context.Context) context.Context {
	switchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	c.mu.Lock()
	if c.cancelSwitch != nil {
		c.cancelSwitch()
	}
	c.cancelSwitch = cancel
	c.mu.Unlock()

	return switchCtx
}

func (c *Controller) firstError() string {
	for _, msg := range []string{c.pipelines.Err(), c.stages.Err(), c.contacts.Err()} {
		if msg != "" {
			return msg
		}
	}
	return ""
}

// contactID mirrors the id precedence of the derived view model so
// selections made against rendered rows match the raw records.
func contactID(record *domain.RawContactRecord) string {
	if record.User.ID != "" {
		return record.User.ID
	}
	if record.Customer.ID != "" {
		return record.Customer.ID
	}
	return record.ID
}
