// Package featureflags evaluates runtime toggles such as AI suggestions and
// the live feed socket.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Known flags.
const (
	AISuggestions = "ai_suggestions"
	LiveFeed      = "live_feed"
)

// Manager holds flag values parsed from a "name=value" list such as
// "ai_suggestions=on,live_feed=25%".
type Manager struct {
	flags map[string]string
}

// NewManager parses raw. Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	flags := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		flags[key] = value
	}
	return &Manager{flags: flags}
}

// Enabled evaluates name for userID. Values are on/true/1, off/false/0 or a
// percentage rollout ("25%") bucketed deterministically per user. Anonymous
// viewers (userID 0) only see fully rolled out flags.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if userID == 0 {
		return false
	}
	return bucket(name, userID) < pct
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

// Gate returns a handler that answers 404 when name is disabled for the
// caller. The caller's ID is read from c.Locals("userID").
func (m *Manager) Gate(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, _ := c.Locals("userID").(uint)
		if !m.Enabled(name, uid) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "feature not available",
				"code":  "FEATURE_DISABLED",
			})
		}
		return c.Next()
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
