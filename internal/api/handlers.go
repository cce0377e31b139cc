package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"firefight/internal/game"
	"firefight/internal/game/spatial"

	"github.com/go-chi/chi/v5"
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
	maxTargetBody     = 4 << 10
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	writeJSON(w, map[string]any{
		"tick":           snap.TickNumber,
		"characterCount": len(snap.Characters),
		"aliveCount":     snap.AliveCount,
		"weaponCount":    len(snap.Weapons),
		"connections":    snap.Connections,
		"combat":         snap.Stats,
		"eventLog":       h.engine.EventLog().GetStats(),
	})
}

// weaponView is the public shape of a catalog weapon.
type weaponView struct {
	Name             string  `json:"name"`
	AmmoType         string  `json:"ammoType"`
	ClipCapacity     int     `json:"clipCapacity"`
	TimeBetweenShots float64 `json:"timeBetweenShotsMs"`
	AllowCatchup     bool    `json:"allowCatchup"`
	Range            float64 `json:"range"`
	Damage           float64 `json:"damage"`
	Radius           float64 `json:"radius"`
	DamageType       string  `json:"damageType,omitempty"`
	Leeway           float64 `json:"leeway"`
}

func (h *routerHandlers) handleGetWeapons(w http.ResponseWriter, r *http.Request) {
	items := h.engine.Items()
	out := make([]weaponView, 0, len(items.WeaponNames()))
	for _, name := range items.WeaponNames() {
		spec, ok := items.Weapon(name)
		if !ok {
			continue
		}
		out = append(out, weaponView{
			Name:             spec.Name,
			AmmoType:         spec.Ammo.AmmoType,
			ClipCapacity:     spec.Ammo.ClipCapacity,
			TimeBetweenShots: float64(spec.Ammo.TimeBetweenShots.Microseconds()) / 1000,
			AllowCatchup:     spec.Ammo.AllowCatchup,
			Range:            spec.HitScan.MaxRange,
			Damage:           spec.HitScan.Damage,
			Radius:           spec.HitScan.Radius,
			DamageType:       spec.HitScan.DamageType,
			Leeway:           spec.HitScan.Leeway,
		})
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxEventLimit)
	}
	writeJSON(w, h.engine.EventLog().Recent(limit))
}

type vecRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v vecRequest) vec() spatial.Vec3 { return spatial.V(v.X, v.Y, v.Z) }

func (h *routerHandlers) handleSpawnTarget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string      `json:"name"`
		Position    *vecRequest `json:"position"`
		Static      bool        `json:"static"`
		PatrolTo    *vecRequest `json:"patrolTo"`
		PatrolSpeed float64     `json:"patrolSpeed"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxTargetBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Static && req.PatrolTo != nil {
		writeError(w, "A static target cannot patrol", http.StatusBadRequest)
		return
	}
	if req.PatrolSpeed < 0 {
		writeError(w, "patrolSpeed must be >= 0", http.StatusBadRequest)
		return
	}

	opts := game.TargetOptions{
		Name:        req.Name,
		Static:      req.Static,
		PatrolSpeed: req.PatrolSpeed,
	}
	if req.Position != nil {
		opts.Position = req.Position.vec()
	}
	if req.PatrolTo != nil {
		to := req.PatrolTo.vec()
		opts.PatrolTo = &to
	}

	id, err := h.engine.SpawnTarget(opts)
	if errors.Is(err, game.ErrTargetLimit) {
		writeError(w, "Target limit reached", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		log.Printf("❌ Target spawn failed: %v", err)
		writeError(w, "Target spawn failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": string(id)})
}

func (h *routerHandlers) handleRemoveTarget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.RemoveTarget(game.EntityID(id)); err != nil {
		if errors.Is(err, game.ErrNotFound) {
			writeError(w, "Target not found", http.StatusNotFound)
			return
		}
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleDebugView(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.renderer.WritePNG(&buf, h.engine.Snapshot()); err != nil {
		log.Printf("❌ Debug view render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
