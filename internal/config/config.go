// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for server, tick and combat settings.
//
// IMPORTANT: When changing defaults, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP/WebSocket server settings.
type ServerConfig struct {
	Port          int
	MaxCharacters int    // Hard cap on joined characters
	EventLogPath  string // JSONL combat audit trail ("" disables the file)
	DebugServer   bool   // pprof + /metrics on localhost
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:          3000,
		MaxCharacters: 64,
		EventLogPath:  "combat.jsonl",
		DebugServer:   true,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mc := getEnvInt("MAX_CHARACTERS", 0); mc > 0 {
		cfg.MaxCharacters = mc
	}
	if v, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = v
	}
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.DebugServer = false
	}

	return cfg
}

// =============================================================================
// TICK CONFIGURATION
// =============================================================================

// TickConfig controls the simulation loop shared by authority and replicas.
type TickConfig struct {
	Rate int // Ticks per second
}

// DefaultTick returns the default tick configuration.
func DefaultTick() TickConfig {
	return TickConfig{
		Rate: 60, // 16.6ms frames keep refire jitter well under TimeBetweenShots
	}
}

// TickFromEnv returns tick configuration with environment variable overrides.
func TickFromEnv() TickConfig {
	cfg := DefaultTick()
	if r := getEnvInt("TICK_RATE", 0); r > 0 {
		cfg.Rate = r
	}
	return cfg
}

// Interval returns the duration of one tick.
func (t TickConfig) Interval() time.Duration {
	if t.Rate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(t.Rate)
}

// =============================================================================
// COMBAT CONFIGURATION
// =============================================================================

// CombatConfig holds weapon tuning that is not per-weapon.
type CombatConfig struct {
	CatalogPath      string        // YAML weapon catalog ("" = built-in catalog)
	DefaultWeapon    string        // Weapon equipped on join
	StartingAmmo     int           // Reserve ammo granted on join
	MinBoxExtent     float64       // Per-axis floor for hit validation boxes
	ReloadFallback   time.Duration // Used when the reload montage reports no duration
	ReloadApplyLead  time.Duration // Refill fires this much before the visual reload ends
	ReloadApplyFloor time.Duration // Refill never fires sooner than this
}

// DefaultCombat returns the default combat configuration.
func DefaultCombat() CombatConfig {
	return CombatConfig{
		CatalogPath:      "configs/weapons.yaml",
		DefaultWeapon:    "rifle",
		StartingAmmo:     90,
		MinBoxExtent:     20,
		ReloadFallback:   500 * time.Millisecond,
		ReloadApplyLead:  100 * time.Millisecond,
		ReloadApplyFloor: 100 * time.Millisecond,
	}
}

// CombatFromEnv returns combat configuration with environment variable overrides.
func CombatFromEnv() CombatConfig {
	cfg := DefaultCombat()

	if v, ok := os.LookupEnv("WEAPON_CATALOG"); ok {
		cfg.CatalogPath = v
	}
	if v := os.Getenv("DEFAULT_WEAPON"); v != "" {
		cfg.DefaultWeapon = v
	}
	if a := getEnvInt("STARTING_AMMO", -1); a >= 0 {
		cfg.StartingAmmo = a
	}
	if e := getEnvFloat("MIN_BOX_EXTENT", -1); e >= 0 {
		cfg.MinBoxExtent = e
	}
	if d := getEnvDuration("RELOAD_FALLBACK", 0); d > 0 {
		cfg.ReloadFallback = d
	}

	return cfg
}

// =============================================================================
// WORLD CONFIGURATION
// =============================================================================

// WorldConfig describes the arena used for traces and broad-phase indexing.
type WorldConfig struct {
	Width        float64 // X extent in world units
	Depth        float64 // Y extent in world units
	GridCellSize float64 // Broad-phase cell size
}

// DefaultWorld returns the default world configuration.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		Width:        8000,
		Depth:        8000,
		GridCellSize: 500,
	}
}

// =============================================================================
// RESOURCE LIMITS
// =============================================================================

// ResourceLimits controls DoS protection and performance limits.
type ResourceLimits struct {
	MaxTargets    int // Training targets spawnable through the API
	MaxImpacts    int // Per-snapshot impact flash limit
	MaxTracers    int // Per-snapshot tracer line limit
	InboxSize     int // Buffered inbound messages per process
	PeerQueueSize int // Buffered outbound frames per connection
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxTargets:    128,
		MaxImpacts:    32,
		MaxTracers:    32,
		InboxSize:     4096,
		PeerQueueSize: 512,
	}
}

// =============================================================================
// REPLICA CONFIGURATION
// =============================================================================

// ReplicaConfig holds settings for the headless replica client.
type ReplicaConfig struct {
	ServerURL   string        // ws:// endpoint of the authority
	Name        string        // Character name to join with
	Weapon      string        // Catalog weapon to request
	BurstEvery  time.Duration // Pause between bursts
	BurstLength time.Duration // How long the trigger is held
}

// DefaultReplica returns the default replica configuration.
func DefaultReplica() ReplicaConfig {
	return ReplicaConfig{
		ServerURL:   "ws://localhost:3000/ws",
		Name:        "replica",
		Weapon:      "rifle",
		BurstEvery:  2 * time.Second,
		BurstLength: 800 * time.Millisecond,
	}
}

// ReplicaFromEnv returns replica configuration with environment variable overrides.
func ReplicaFromEnv() ReplicaConfig {
	cfg := DefaultReplica()

	if v := os.Getenv("SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("REPLICA_NAME"); v != "" {
		cfg.Name = v
	}
	if v := os.Getenv("REPLICA_WEAPON"); v != "" {
		cfg.Weapon = v
	}
	if d := getEnvDuration("BURST_EVERY", 0); d > 0 {
		cfg.BurstEvery = d
	}
	if d := getEnvDuration("BURST_LENGTH", 0); d > 0 {
		cfg.BurstLength = d
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server  ServerConfig
	Tick    TickConfig
	Combat  CombatConfig
	World   WorldConfig
	Limits  ResourceLimits
	Replica ReplicaConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server:  ServerFromEnv(),
		Tick:    TickFromEnv(),
		Combat:  CombatFromEnv(),
		World:   DefaultWorld(),
		Limits:  DefaultLimits(),
		Replica: ReplicaFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
