package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gw2tools/gw2-session-tracker/internal/metrics"
	"github.com/gw2tools/gw2-session-tracker/internal/models"
)

// holdingsSource provides the owned collections a session values each cycle.
// The concrete GW2Service satisfies it.
type holdingsSource interface {
	CharacterInventory(ctx context.Context, name string) ([]models.OwnedItemStack, error)
	Materials(ctx context.Context) ([]models.OwnedItemStack, error)
	WalletCoins(ctx context.Context) (int64, error)
}

type categoryValuer interface {
	ValueCategory(ctx context.Context, character string, category HoldingCategory, stacks []models.OwnedItemStack, side models.TradeSide) (ValuationResult, error)
}

type recordExporter interface {
	Export(state models.SessionState) (models.SessionExport, string, error)
}

// SessionTracker owns the single live session: it snapshots total holdings
// value at start, recomputes it on a fixed interval, and reports profit as
// the delta. Exactly one update loop runs per tracker; rotation stops and
// joins the previous loop before starting the next one.
type SessionTracker struct {
	holdings  holdingsSource
	valuer    categoryValuer
	snapshots snapshotStore
	exporter  recordExporter
	interval  time.Duration

	// lifecycle serializes Start, Reset and Stop end-to-end. mu alone is
	// not enough: Reset and Stop must release it while joining the loop,
	// and two callers passing the running check in that window would each
	// join the same done channel and rotation would spawn a second loop.
	lifecycle sync.Mutex

	mu         sync.Mutex
	state      models.SessionState
	lastDetail []StackValue
	lastError  string
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewSessionTracker(holdings holdingsSource, valuer categoryValuer, snapshots snapshotStore, exporter recordExporter, interval time.Duration) *SessionTracker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionTracker{
		holdings:  holdings,
		valuer:    valuer,
		snapshots: snapshots,
		exporter:  exporter,
		interval:  interval,
		state:     models.SessionState{Phase: models.PhaseIdle},
	}
}

type sessionTotals struct {
	inventory int64
	materials int64
	coins     int64
}

func (t sessionTotals) total() int64 {
	return t.inventory + t.materials + t.coins
}

// Start begins a session for the character: records the current total value
// as the start value and launches the update loop. Starting while a loop is
// already running is a protocol violation and fails with ErrSessionActive.
func (t *SessionTracker) Start(ctx context.Context, character string) error {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrSessionActive
	}
	return t.startLocked(ctx, character)
}

// startLocked computes the start value and spawns the loop. Caller holds mu.
func (t *SessionTracker) startLocked(ctx context.Context, character string) error {
	totals, detail, err := t.collectTotals(ctx, character)
	if err != nil {
		return err
	}

	t.state = models.SessionState{
		Character:      character,
		Phase:          models.PhaseStarted,
		StartValue:     totals.total(),
		InventoryValue: totals.inventory,
		MaterialsValue: totals.materials,
		Coins:          totals.coins,
		StartTime:      time.Now(),
	}
	t.lastDetail = detail
	t.lastError = ""

	metrics.SessionStartValue.Set(float64(t.state.StartValue))
	log.Printf("Session tracker: session started for %s, start value: %s", character, models.FormatCoins(t.state.StartValue))

	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})
	t.running = true
	go t.runLoop(loopCtx, t.done)
	return nil
}

// runLoop recomputes session values on the configured interval until the
// stop signal is observed. Failures are recorded, never fatal.
func (t *SessionTracker) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	t.mu.Lock()
	t.state.Phase = models.PhaseUpdating
	t.mu.Unlock()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Session tracker: update loop stopping...")
			return
		case <-ticker.C:
			if err := t.updateOnce(ctx); err != nil {
				log.Printf("Session tracker: update cycle failed: %v", err)
				t.mu.Lock()
				t.lastError = err.Error()
				t.mu.Unlock()
			}
		}
	}
}

// updateOnce runs one valuation pass and updates current and profit values.
// A holdings fetch failure aborts the pass leaving the prior values intact.
func (t *SessionTracker) updateOnce(ctx context.Context) error {
	t.mu.Lock()
	character := t.state.Character
	startValue := t.state.StartValue
	t.mu.Unlock()

	totals, detail, err := t.collectTotals(ctx, character)
	if err != nil {
		metrics.SessionUpdateFailuresTotal.Inc()
		return err
	}

	t.mu.Lock()
	t.state.CurrentValue = totals.total()
	t.state.ProfitValue = totals.total() - startValue
	t.state.InventoryValue = totals.inventory
	t.state.MaterialsValue = totals.materials
	t.state.Coins = totals.coins
	t.state.Updated = true
	t.lastDetail = detail
	t.lastError = ""
	profit := t.state.ProfitValue
	current := t.state.CurrentValue
	t.mu.Unlock()

	metrics.SessionCurrentValue.Set(float64(current))
	metrics.SessionProfit.Set(float64(profit))
	metrics.SessionUpdatesTotal.Inc()

	log.Printf("Session tracker: current value %s, profit %s", models.FormatCoins(current), models.FormatCoins(profit))
	return nil
}

// collectTotals values inventory, materials storage and wallet coins. The
// category aggregates are persisted as a side effect; persistence failures
// are logged but don't fail the pass.
func (t *SessionTracker) collectTotals(ctx context.Context, character string) (sessionTotals, []StackValue, error) {
	inventory, err := t.holdings.CharacterInventory(ctx, character)
	if err != nil {
		return sessionTotals{}, nil, err
	}
	invResult, err := t.valuer.ValueCategory(ctx, character, CategoryInventory, inventory, models.SideSell)
	if err != nil {
		log.Printf("Session tracker: failed to persist inventory value: %v", err)
	}

	materials, err := t.holdings.Materials(ctx)
	if err != nil {
		return sessionTotals{}, nil, err
	}
	matResult, err := t.valuer.ValueCategory(ctx, character, CategoryMaterials, materials, models.SideSell)
	if err != nil {
		log.Printf("Session tracker: failed to persist materials value: %v", err)
	}

	coins, err := t.holdings.WalletCoins(ctx)
	if err != nil {
		return sessionTotals{}, nil, err
	}
	if err := t.snapshots.SaveCategoryValue(character, CategoryCoins, coins); err != nil {
		log.Printf("Session tracker: failed to persist coin amount: %v", err)
	}

	detail := make([]StackValue, 0, len(invResult.Items)+len(matResult.Items))
	detail = append(detail, invResult.Items...)
	detail = append(detail, matResult.Items...)
	sort.Slice(detail, func(i, j int) bool { return detail[i].Value > detail[j].Value })

	return sessionTotals{
		inventory: invResult.Total,
		materials: matResult.Total,
		coins:     coins,
	}, detail, nil
}

// Reset rotates the session: stops and joins the running loop, exports the
// prior state as a durable record, zeroes the state and starts a fresh loop
// for the same character.
func (t *SessionTracker) Reset(ctx context.Context) (models.SessionExport, string, error) {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return models.SessionExport{}, "", ErrNoSession
	}
	cancel := t.cancel
	done := t.done
	t.mu.Unlock()

	// Stop-then-join outside the lock so the loop can finish its iteration.
	cancel()
	<-done

	t.mu.Lock()
	defer t.mu.Unlock()
	t.running = false
	prior := t.state
	character := prior.Character

	export, path, err := t.exporter.Export(prior)
	if err != nil {
		// The rotation still proceeds; losing one record is not worth a
		// stuck session.
		log.Printf("Session tracker: failed to export session record: %v", err)
	}

	t.state = models.SessionState{Phase: models.PhaseIdle}
	t.lastDetail = nil
	if err := t.startLocked(ctx, character); err != nil {
		return export, path, err
	}
	return export, path, nil
}

// Stop terminates the update loop for process shutdown. Unlike Reset it
// does not start a replacement.
func (t *SessionTracker) Stop() {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()

	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel := t.cancel
	done := t.done
	t.mu.Unlock()

	cancel()
	<-done

	t.mu.Lock()
	t.running = false
	t.state.Phase = models.PhaseStopped
	t.mu.Unlock()
	log.Println("Session tracker: stopped")
}

// Snapshot returns a copy of the live session state.
func (t *SessionTracker) Snapshot() models.SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Detail returns the per-stack breakdown from the last valuation pass,
// sorted by value descending.
func (t *SessionTracker) Detail() []StackValue {
	t.mu.Lock()
	defer t.mu.Unlock()
	detail := make([]StackValue, len(t.lastDetail))
	copy(detail, t.lastDetail)
	return detail
}

// LastError returns the most recent update-cycle failure, empty when the
// last cycle succeeded.
func (t *SessionTracker) LastError() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}
