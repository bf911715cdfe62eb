package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cashclarity/ledgersync/internal/domain"
	"github.com/cashclarity/ledgersync/internal/infrastructure/metrics"
)

const (
	triggerAuto     = "auto"
	triggerExplicit = "explicit"
)

// SheetConfig holds the state loaded at mount and the sheet's collaborators.
type SheetConfig struct {
	WorkspaceID string
	PeriodID    string
	// Entries are the period's persisted entries in display order.
	Entries    []domain.Entry
	Period     domain.PeriodConfig
	Categories []domain.Category

	EntryGateway    EntryGateway
	OverrideGateway PeriodOverrideGateway
	IDGenerator     IDGenerator
	Notifier        Notifier
	Refresher       Refresher
	// OnStateChange is called on every sync state transition. It may run on
	// the timer goroutine and must not block.
	OnStateChange func(domain.SyncState)

	QuietPeriod time.Duration
	SaveTimeout time.Duration
	AfterFunc   AfterFunc
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// Sheet is the editing session of one ledger period. Every local change goes
// through its row and period mutators; it saves the dirty subset in one
// batch after a quiet period, or on demand through SaveAll.
type Sheet struct {
	mu          sync.Mutex
	workspaceID string
	periodID    string
	store       *EntryStore
	config      domain.PeriodConfig
	baseline    domain.PeriodConfig
	categories  []domain.Category
	closed      bool

	// inFlight counts running saves per captured entry id.
	inFlight map[string]int
	// removed tracks entries dropped locally while a save carrying them was
	// in flight. The value is true once the entry is known to exist remotely.
	removed map[string]bool

	entries     EntryGateway
	overrides   PeriodOverrideGateway
	idGen       IDGenerator
	notifier    Notifier
	refresher   Refresher
	state       *SyncStateMachine
	scheduler   *Debouncer
	saveTimeout time.Duration
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

// NewSheet mounts a sheet. The baseline snapshot is taken from cfg.Period
// immediately and the sync state starts idle. Cancelling ctx or calling
// Close tears the sheet down and drops any pending automatic save.
func NewSheet(ctx context.Context, cfg SheetConfig) (*Sheet, error) {
	if cfg.EntryGateway == nil || cfg.OverrideGateway == nil {
		return nil, errors.New("sheet requires entry and override gateways")
	}
	if cfg.IDGenerator == nil {
		return nil, errors.New("sheet requires an ID generator")
	}
	if err := domain.ValidatePeriodID(cfg.PeriodID); err != nil {
		return nil, err
	}

	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = DefaultSaveTimeout
	}
	if cfg.Notifier == nil {
		cfg.Notifier = noopNotifier{}
	}
	if cfg.Refresher == nil {
		cfg.Refresher = noopRefresher{}
	}

	loaded := make([]domain.Entry, len(cfg.Entries))
	for i, e := range cfg.Entries {
		e.IsNew = false
		e.IsEdited = false
		loaded[i] = e
	}

	s := &Sheet{
		workspaceID: cfg.WorkspaceID,
		periodID:    cfg.PeriodID,
		store:       NewEntryStore(loaded),
		config:      cfg.Period,
		baseline:    cfg.Period,
		categories:  cfg.Categories,
		inFlight:    make(map[string]int),
		removed:     make(map[string]bool),
		entries:     cfg.EntryGateway,
		overrides:   cfg.OverrideGateway,
		idGen:       cfg.IDGenerator,
		notifier:    cfg.Notifier,
		refresher:   cfg.Refresher,
		state:       NewSyncStateMachine(cfg.OnStateChange),
		saveTimeout: cfg.SaveTimeout,
		logger:      cfg.Logger.With().Str("period_id", cfg.PeriodID).Logger(),
		metrics:     cfg.Metrics,
	}
	s.scheduler = NewDebouncer(ctx, cfg.QuietPeriod, cfg.AfterFunc, s.autoSave)

	return s, nil
}

// AddRow appends a new, still unsaved entry to its direction and category
// group. An empty categoryID picks the first category of that direction.
func (s *Sheet) AddRow(direction domain.Direction, categoryID string) (string, error) {
	direction, err := domain.ParseDirection(string(direction))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", domain.ErrSheetClosed
	}

	id, err := s.addLocked(direction, categoryID, "", decimal.Zero)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	pending := s.rescheduleLocked("add")
	s.mu.Unlock()

	s.afterMutation(pending)
	s.logger.Debug().Str("entry_id", id).Str("direction", string(direction)).Msg("row added")

	return id, nil
}

// PasteRows adds one new entry per non-blank line of text. Each line is
// "description<TAB>amount"; the amount is parsed leniently.
func (s *Sheet) PasteRows(direction domain.Direction, text string) ([]string, error) {
	direction, err := domain.ParseDirection(string(direction))
	if err != nil {
		return nil, err
	}

	type pastedRow struct {
		description string
		amount      decimal.Decimal
	}

	var rows []pastedRow
	saved := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.Split(line, "\t")
		row := pastedRow{description: strings.TrimSpace(parts[0]), amount: decimal.Zero}
		if err := domain.ValidateDescription(row.description); err != nil {
			return nil, fmt.Errorf("paste line %d: %w", len(rows)+1, err)
		}
		if len(parts) > 1 {
			row.amount = domain.ParsePastedAmount(parts[1])
		}
		if row.description != "" {
			saved++
		}
		rows = append(rows, row)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, domain.ErrSheetClosed
	}

	// The next save sends every dirty row in one batch, so the paste must
	// keep that batch within what the API accepts.
	if dirty := s.pendingCountLocked(); dirty+saved > domain.MaxBatchSize {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: paste would leave %d unsaved rows, limit is %d",
			domain.ErrBatchTooLarge, dirty+saved, domain.MaxBatchSize)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		id, err := s.addLocked(direction, "", row.description, row.amount)
		if err != nil {
			s.mu.Unlock()
			return ids, err
		}
		ids = append(ids, id)
	}

	pending := s.rescheduleLocked("paste")
	s.mu.Unlock()

	s.afterMutation(pending)
	s.logger.Debug().Int("entry_count", len(ids)).Msg("rows pasted")

	return ids, nil
}

// UpdateRow sets one field of an entry from its typed input. Persisted
// entries become edited; new entries need no extra marker.
func (s *Sheet) UpdateRow(id string, field domain.EntryField, raw string) error {
	field, err := domain.ParseEntryField(string(field))
	if err != nil {
		return err
	}

	var amount decimal.Decimal
	switch field {
	case domain.FieldAmount:
		if amount, err = domain.ParseAmountInput(raw); err != nil {
			return err
		}
	case domain.FieldDescription:
		if err := domain.ValidateDescription(raw); err != nil {
			return err
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSheetClosed
	}

	err = s.store.Update(id, func(e *domain.Entry) {
		switch field {
		case domain.FieldDescription:
			e.Description = raw
		case domain.FieldAmount:
			e.Amount = amount
		case domain.FieldCategoryID:
			e.CategoryID = raw
		}
		e.IsEdited = !e.IsNew
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	pending := s.rescheduleLocked("update")
	s.mu.Unlock()

	s.afterMutation(pending)
	s.logger.Debug().Str("entry_id", id).Str("field", string(field)).Msg("row updated")

	return nil
}

// RemoveRow deletes an entry. A never saved entry is dropped locally without
// any remote call. A persisted entry is deleted remotely first and stays in
// the table if that fails.
func (s *Sheet) RemoveRow(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSheetClosed
	}

	e, ok := s.store.Get(id)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}

	if e.IsNew {
		s.store.Remove(id)
		if s.inFlight[id] > 0 {
			s.removed[id] = false
		}
		pending := s.rescheduleLocked("remove")
		s.mu.Unlock()

		s.afterMutation(pending)
		s.metrics.ObserveDelete("local")
		s.logger.Debug().Str("entry_id", id).Msg("unsaved row removed locally")

		return nil
	}
	s.mu.Unlock()

	if err := s.entries.DeleteEntry(ctx, id); err != nil && !errors.Is(err, domain.ErrEntryNotFound) {
		s.metrics.ObserveDelete("remote_failure")
		s.logger.Error().Err(err).Str("entry_id", id).Msg("failed to delete entry")
		s.notifier.Failure("Failed to delete entry", err)

		return fmt.Errorf("delete entry %s: %w", id, err)
	}

	s.mu.Lock()
	s.store.Remove(id)
	if s.inFlight[id] > 0 {
		s.removed[id] = true
	}
	pending := s.rescheduleLocked("remove")
	s.mu.Unlock()

	s.afterMutation(pending)
	s.metrics.ObserveDelete("remote_success")
	s.logger.Info().Str("entry_id", id).Msg("entry deleted")
	s.notifier.Success("Entry deleted")

	return nil
}

// SetOpeningBalance sets the opening balance text; blank clears the override.
func (s *Sheet) SetOpeningBalance(raw string) error {
	if _, err := domain.ParseAmountInput(raw); err != nil {
		return err
	}
	return s.updatePeriod(func(c *domain.PeriodConfig) { c.OpeningBalance = strings.TrimSpace(raw) })
}

// SetDividendsReleased sets the dividends flag.
func (s *Sheet) SetDividendsReleased(released bool) error {
	return s.updatePeriod(func(c *domain.PeriodConfig) { c.DividendsReleased = released })
}

// SetClosingOverrideEnabled toggles whether the closing balance text is sent.
func (s *Sheet) SetClosingOverrideEnabled(enabled bool) error {
	return s.updatePeriod(func(c *domain.PeriodConfig) { c.ClosingOverrideEnabled = enabled })
}

// SetClosingBalance sets the closing balance override text.
func (s *Sheet) SetClosingBalance(raw string) error {
	if _, err := domain.ParseAmountInput(raw); err != nil {
		return err
	}
	return s.updatePeriod(func(c *domain.PeriodConfig) { c.ClosingBalance = strings.TrimSpace(raw) })
}

func (s *Sheet) updatePeriod(fn func(*domain.PeriodConfig)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSheetClosed
	}

	fn(&s.config)
	pending := s.rescheduleLocked("period")
	s.mu.Unlock()

	s.afterMutation(pending)

	return nil
}

// SaveAll persists the dirty subset in one batched upsert followed by the
// period overrides. Dirty flags and the baseline change only when both
// requests succeed. Explicit saves notify the user about the outcome.
func (s *Sheet) SaveAll(ctx context.Context, explicit bool) error {
	trigger := triggerAuto
	if explicit {
		trigger = triggerExplicit
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSheetClosed
	}

	dirty, marks := s.store.Dirty()
	cfg := s.config
	records := make([]domain.EntryRecord, len(dirty))
	for i, e := range dirty {
		records[i] = e.Record(s.workspaceID, s.periodID)
	}
	for _, m := range marks {
		s.inFlight[m.id]++
	}
	s.mu.Unlock()

	s.state.MarkSaving()

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()

	start := time.Now()
	err := s.persist(ctx, records, cfg.Overrides())
	elapsed := time.Since(start)
	s.metrics.ObserveSave(trigger, err, len(records), elapsed)

	s.mu.Lock()
	if err == nil {
		s.store.MarkSaved(marks)
		s.baseline = cfg
	}
	orphans := s.settleLocked(marks, err == nil)
	pendingCount := s.pendingCountLocked()
	s.mu.Unlock()

	s.metrics.SetPendingEntries(pendingCount)

	// A row removed mid-save may already exist remotely through an
	// overlapping save, so orphans are deleted whatever this save's outcome.
	s.deleteOrphans(parent, orphans)

	if err != nil {
		s.state.MarkError()
		s.logger.Error().Err(err).
			Str("trigger", trigger).
			Int("entry_count", len(records)).
			Dur("duration", elapsed).
			Msg("save failed")
		if explicit {
			s.notifier.Failure("Failed to save changes", err)
		}

		return err
	}

	s.state.MarkSaved()
	s.logger.Info().
		Str("trigger", trigger).
		Int("entry_count", len(records)).
		Dur("duration", elapsed).
		Msg("changes saved")

	s.refresher.Refresh(ctx)
	if explicit {
		s.notifier.Success("All changes saved")
	}

	return nil
}

// HasPendingChanges reports whether anything differs from what the server
// last confirmed.
func (s *Sheet) HasPendingChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hasPendingChangesLocked()
}

// Entries returns copies of all entries in table order.
func (s *Sheet) Entries() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.All()
}

// Entry returns a copy of one entry.
func (s *Sheet) Entry(id string) (domain.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Get(id)
}

// Config returns the current period configuration.
func (s *Sheet) Config() domain.PeriodConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.config
}

// Summary returns the local totals of the period.
func (s *Sheet) Summary() domain.PeriodSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.Summarize(s.store.All(), s.config)
}

// State returns the current sync state.
func (s *Sheet) State() domain.SyncState {
	return s.state.State()
}

// Close tears the sheet down. A pending automatic save is dropped.
func (s *Sheet) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.scheduler.Stop()
}

func (s *Sheet) autoSave(ctx context.Context) {
	s.metrics.ObserveDebounceFired()
	// Failures are logged and reflected in the sync state by SaveAll.
	_ = s.SaveAll(ctx, false)
}

func (s *Sheet) persist(ctx context.Context, records []domain.EntryRecord, overrides domain.PeriodOverrides) error {
	if len(records) > 0 {
		if err := s.entries.UpsertEntries(ctx, s.periodID, records); err != nil {
			return fmt.Errorf("save entries: %w", err)
		}
	}

	if err := s.overrides.UpsertPeriodOverrides(ctx, s.periodID, overrides); err != nil {
		return fmt.Errorf("save period overrides: %w", err)
	}

	return nil
}

func (s *Sheet) addLocked(direction domain.Direction, categoryID, description string, amount decimal.Decimal) (string, error) {
	if categoryID == "" {
		categoryID = s.defaultCategoryLocked(direction)
	}

	id := s.idGen.Generate()
	err := s.store.Add(domain.Entry{
		ID:          id,
		Direction:   direction,
		CategoryID:  categoryID,
		Description: description,
		Amount:      amount,
		IsNew:       true,
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *Sheet) defaultCategoryLocked(direction domain.Direction) string {
	for _, c := range s.categories {
		if c.Direction == direction {
			return c.ID
		}
	}
	return ""
}

// rescheduleLocked restarts the quiet period when anything is unsaved and
// drops a pending timer otherwise. It reports whether changes are pending.
func (s *Sheet) rescheduleLocked(operation string) bool {
	s.metrics.ObserveMutation(operation)
	s.metrics.SetPendingEntries(s.pendingCountLocked())

	if s.hasPendingChangesLocked() {
		s.scheduler.Trigger()
		return true
	}

	s.scheduler.Cancel()
	return false
}

func (s *Sheet) afterMutation(pending bool) {
	if pending {
		s.state.MarkSaving()
	}
}

func (s *Sheet) hasPendingChangesLocked() bool {
	return s.store.HasDirty() || s.config != s.baseline
}

func (s *Sheet) pendingCountLocked() int {
	_, marks := s.store.Dirty()
	return len(marks)
}

// settleLocked releases the in-flight marks of a finished save and returns
// the ids of removed entries that now need a remote delete.
func (s *Sheet) settleLocked(marks []savedEntry, succeeded bool) []string {
	var orphans []string

	for _, m := range marks {
		s.inFlight[m.id]--
		if s.inFlight[m.id] > 0 {
			if persisted, ok := s.removed[m.id]; ok && succeeded && !persisted {
				s.removed[m.id] = true
			}
			continue
		}
		delete(s.inFlight, m.id)

		persisted, ok := s.removed[m.id]
		if !ok {
			continue
		}
		delete(s.removed, m.id)

		if persisted || succeeded {
			orphans = append(orphans, m.id)
		}
	}

	return orphans
}

// deleteOrphans runs on its own deadline: the save that found the orphans
// may have failed by running out of time.
func (s *Sheet) deleteOrphans(parent context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.saveTimeout)
	defer cancel()

	for _, id := range ids {
		err := s.entries.DeleteEntry(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrEntryNotFound) {
			s.logger.Error().Err(err).Str("entry_id", id).Msg("failed to delete entry removed during save")
			continue
		}
		s.logger.Debug().Str("entry_id", id).Msg("entry removed during save deleted remotely")
	}
}

type noopNotifier struct{}

func (noopNotifier) Success(string)        {}
func (noopNotifier) Failure(string, error) {}

type noopRefresher struct{}

func (noopRefresher) Refresh(context.Context) {}
