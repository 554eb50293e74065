package cooling

import (
	"context"
	"sync"
	"time"

	"github.com/guardianlink/guardianlink360/pkg/config"
	"github.com/guardianlink/guardianlink360/pkg/logger"
)

// ExpireFunc receives entries whose cooling window elapsed with no guardian
// action, after the registry has applied the configured policy to the entry
// itself. It runs on the sweeper goroutine.
type ExpireFunc func(ctx context.Context, e Entry, policy config.ExpiryPolicy)

// Registry owns the per-senior freeze state machine: NONE -> FLAGGED on a
// qualifying flag, FLAGGED -> NONE on guardian approval, explicit release, or
// policy-driven expiry. Transitions for one senior are serialized; different
// seniors never contend.
type Registry struct {
	store    Store
	cfg      config.CoolingConfig
	onExpire ExpireFunc

	locks sync.Map // seniorPhone -> *sync.Mutex

	stop chan struct{}
	done chan struct{}
}

func NewRegistry(store Store, cfg config.CoolingConfig, onExpire ExpireFunc) *Registry {
	return &Registry{
		store:    store,
		cfg:      cfg,
		onExpire: onExpire,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Registry) lockFor(seniorPhone string) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(seniorPhone, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ShouldFreeze reports whether an amount crosses the high-risk threshold.
// Below-threshold transactions are the common case and touch no state.
func (r *Registry) ShouldFreeze(amount int64) bool {
	return amount >= r.cfg.FreezeThreshold
}

// Flag puts the senior into FLAGGED and returns the stored entry. A second
// flag while already FLAGGED overwrites amount and window (last write wins).
func (r *Registry) Flag(ctx context.Context, seniorPhone, guardianPhone, bankName string, amount, incidentID int64) (Entry, error) {
	mu := r.lockFor(seniorPhone)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	e := Entry{
		SeniorPhone:   seniorPhone,
		GuardianPhone: guardianPhone,
		Amount:        amount,
		BankName:      bankName,
		CoolingUntil:  now.Add(r.cfg.Window),
		IncidentID:    incidentID,
		FlaggedAt:     now,
	}
	if err := r.store.Put(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Release transitions FLAGGED -> NONE and returns the entry that was active,
// or nil when the senior had no freeze.
func (r *Registry) Release(ctx context.Context, seniorPhone string) (*Entry, error) {
	mu := r.lockFor(seniorPhone)
	mu.Lock()
	defer mu.Unlock()

	e, err := r.store.Get(ctx, seniorPhone)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	if err := r.store.Delete(ctx, seniorPhone); err != nil {
		return nil, err
	}
	return e, nil
}

// Active returns the senior's current freeze, or nil.
func (r *Registry) Active(ctx context.Context, seniorPhone string) (*Entry, error) {
	return r.store.Get(ctx, seniorPhone)
}

// Start runs the expiry sweeper until Stop is called. With the hold policy
// expired entries stay pending and the sweeper does nothing.
func (r *Registry) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep(ctx)
			case <-r.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *Registry) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Registry) sweep(ctx context.Context) {
	if r.cfg.ExpiryPolicy == config.ExpiryHold {
		return
	}

	entries, err := r.store.List(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Cooling sweep failed to list entries", "error", err)
		return
	}

	now := time.Now()
	for _, e := range entries {
		if !e.Expired(now) {
			continue
		}
		r.expireOne(ctx, e.SeniorPhone)
	}
}

func (r *Registry) expireOne(ctx context.Context, seniorPhone string) {
	mu := r.lockFor(seniorPhone)
	mu.Lock()
	defer mu.Unlock()

	// Re-check under the lock: an approve or re-flag may have raced the sweep.
	e, err := r.store.Get(ctx, seniorPhone)
	if err != nil || e == nil || !e.Expired(time.Now()) {
		return
	}
	if err := r.store.Delete(ctx, seniorPhone); err != nil {
		logger.ErrorContext(ctx, "Failed to clear expired cooling entry",
			"error", err, "senior_phone", seniorPhone)
		return
	}

	logger.InfoContext(ctx, "Cooling window expired",
		"senior_phone", seniorPhone,
		"amount", e.Amount,
		"policy", string(r.cfg.ExpiryPolicy),
	)
	if r.onExpire != nil {
		r.onExpire(ctx, *e, r.cfg.ExpiryPolicy)
	}
}
