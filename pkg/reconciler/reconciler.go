// Package reconciler merges per-cycle gossip observation batches into the
// durable node registry.
package reconciler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/meshmon/meshmon/pkg/models"
	"github.com/meshmon/meshmon/pkg/scoring"
)

// Result summarizes one reconciliation cycle.
type Result struct {
	Received     int `json:"received"`
	Invalid      int `json:"invalid"`
	Deduplicated int `json:"deduplicated"`
	Created      int `json:"created"`
	Updated      int `json:"updated"`
	Migrated     int `json:"migrated"`
	Conflicts    int `json:"conflicts"`
	Swept        int `json:"swept"`
	Cleaned      int `json:"cleaned"`
}

// Engine applies observation batches to the registry store. It holds no
// per-cycle state; all mutable state lives in the store.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine creates a reconciliation engine on top of a registry store.
func NewEngine(store Store) *Engine {
	return &Engine{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile incorporates one cycle's observations into the registry:
// validation, in-batch dedup, identity resolution, upsert, not-seen sweep,
// address-only cleanup. Storage errors abort the cycle before the sweep so
// a partially applied batch can never mark unprocessed records unseen.
func (e *Engine) Reconcile(ctx context.Context, batch []models.Observation) (*Result, error) {
	res := &Result{Received: len(batch)}
	now := e.now()

	survivors := dedupe(sanitize(batch, res), res)

	seenKeys := make([]string, 0, len(survivors))

	for i := range survivors {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("reconcile canceled: %w", err)
		}

		obs := &survivors[i]

		base, keep, err := e.resolve(obs, res)
		if err != nil {
			return res, err
		}

		if !keep {
			continue
		}

		if err := e.upsert(obs, base, now, res); err != nil {
			return res, err
		}

		seenKeys = append(seenKeys, obs.Key())
	}

	swept, err := e.store.MarkUnseenExcept(seenKeys)
	if err != nil {
		return res, fmt.Errorf("unseen sweep: %w", err)
	}

	res.Swept = int(swept)

	cleaned, err := e.store.DeleteAddressOnlyDuplicates()
	if err != nil {
		return res, fmt.Errorf("address cleanup: %w", err)
	}

	res.Cleaned = int(cleaned)

	return res, nil
}

// resolve reconciles an observation against the registry rows already
// holding its address. It returns the record whose bookkeeping the upsert
// should inherit (after an identity migration), and whether the
// observation survived conflict resolution.
func (e *Engine) resolve(obs *models.Observation, res *Result) (*models.NodeRecord, bool, error) {
	if obs.NetworkAddress == "" {
		return nil, true, nil
	}

	existing, err := e.store.GetNodesByAddress(obs.NetworkAddress)
	if err != nil {
		return nil, false, fmt.Errorf("resolve %s: %w", obs.NetworkAddress, err)
	}

	var base *models.NodeRecord

	for i := range existing {
		rec := &existing[i]

		switch {
		case rec.IdentityKey == "" && obs.IdentityKey != "":
			// Address-only record being claimed by an identity: migrate.
			// The old row is deleted and its history carries over.
			if err := e.store.DeleteNode(rec.Key()); err != nil {
				return nil, false, fmt.Errorf("migrate %s: %w", rec.Key(), err)
			}

			base = rec
			res.Migrated++

		case rec.IdentityKey != "" && obs.IdentityKey == "":
			// The address already belongs to an identity-keyed record;
			// attach the anonymous observation to that identity instead of
			// spawning a doomed address-only twin.
			obs.IdentityKey = rec.IdentityKey

		case rec.IdentityKey != "" && rec.IdentityKey != obs.IdentityKey:
			// Two identities claim one address: the later version wins,
			// ties keep the existing record.
			res.Conflicts++

			if scoring.CompareVersions(obs.Version, rec.Version) > 0 {
				if err := e.store.DeleteNode(rec.Key()); err != nil {
					return nil, false, fmt.Errorf("evict %s: %w", rec.Key(), err)
				}
			} else {
				return nil, false, nil
			}
		}
	}

	return base, true, nil
}

// upsert writes the resolved observation through an explicit
// insert-or-update branch, merging telemetry into whatever the registry
// already holds.
func (e *Engine) upsert(obs *models.Observation, base *models.NodeRecord, now time.Time, res *Result) error {
	existing, err := e.store.GetNode(obs.Key())
	if err != nil {
		return fmt.Errorf("lookup %s: %w", obs.Key(), err)
	}

	if existing != nil {
		applyObservation(existing, obs)

		// A node that moved keeps its identity key but must be findable at
		// its new endpoint, or address resolution keeps matching the old one.
		if obs.NetworkAddress != "" {
			existing.NetworkAddress = obs.NetworkAddress
		}

		existing.SeenInGossip = true
		existing.UpdatedAt = now

		if err := e.store.UpdateNode(existing); err != nil {
			return fmt.Errorf("update %s: %w", obs.Key(), err)
		}

		res.Updated++

		return nil
	}

	rec := base
	if rec == nil {
		rec = &models.NodeRecord{CreatedAt: now}
	}

	rec.IdentityKey = obs.IdentityKey
	rec.NetworkAddress = obs.NetworkAddress
	applyObservation(rec, obs)
	rec.SeenInGossip = true
	rec.UpdatedAt = now

	if err := e.store.CreateNode(rec); err != nil {
		return fmt.Errorf("create %s: %w", obs.Key(), err)
	}

	res.Created++

	return nil
}

// ApplyEnrichment merges on-chain fields into an existing record. It is
// best-effort: enriching an unknown key is a no-op, and reconciliation
// never overwrites these fields afterward.
func (e *Engine) ApplyEnrichment(identityKey string, info *models.OnChainInfo) error {
	node, err := e.store.GetNode(identityKey)
	if err != nil {
		return fmt.Errorf("enrich %s: %w", identityKey, err)
	}

	if node == nil {
		log.Printf("Skipping enrichment for unknown node %s", identityKey)
		return nil
	}

	if info.Balance != nil {
		node.Balance = info.Balance
	}

	if info.Registered != nil {
		node.Registered = info.Registered
	}

	if info.ManagerAddress != "" {
		node.ManagerAddress = info.ManagerAddress
	}

	if info.RegistryAddress != "" {
		node.RegistryAddress = info.RegistryAddress
	}

	node.UpdatedAt = e.now()

	return e.store.UpdateNode(node)
}
