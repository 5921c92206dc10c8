// Package assetcode produces the human-readable asset codes PREFIX-YYYY-NNN.
package assetcode

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/crucial707/itam/internal/db"
	"github.com/crucial707/itam/internal/errs"
)

// MaxSequence is the largest number that fits the three-digit suffix.
const MaxSequence = 999

// DefaultPrefix is used for categories without their own prefix.
const DefaultPrefix = "IT"

var prefixes = map[string]string{
	"Laptop":    "NB",
	"PC":        "PC",
	"AllInOne":  "AI",
	"Monitor":   "MT",
	"Tablet":    "TB",
	"Radio":     "RD",
	"Server":    "SV",
	"Accessory": "AC",
	"Software":  "SW",
}

// Pattern matches every code this package produces.
var Pattern = regexp.MustCompile(`^[A-Z]{2}-\d{4}-\d{3}$`)

// Prefix maps an asset category to its two-letter prefix.
func Prefix(category string) string {
	if p, ok := prefixes[category]; ok {
		return p
	}
	return DefaultPrefix
}

// Format builds PREFIX-YYYY-NNN.
func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%03d", prefix, year, seq)
}

// Parse returns the trailing sequence number of code, or 0 when the code has
// no numeric third segment.
func Parse(code string) int {
	parts := strings.Split(code, "-")
	if len(parts) != 3 {
		return 0
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Generator computes and reserves sequence numbers per (prefix, year).
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func counterKey(prefix string, year int) string {
	return fmt.Sprintf("%s-%04d", prefix, year)
}

// Peek returns the code the next reservation would most likely produce. It
// writes nothing, so two callers may see the same value.
func (g *Generator) Peek(ctx context.Context, q db.Querier, category string, year int) (string, error) {
	prefix := Prefix(category)

	highest, err := g.highestExisting(ctx, q, prefix, year)
	if err != nil {
		return "", err
	}

	res, err := q.Execute(ctx,
		`SELECT last_seq FROM asset_code_counters WHERE prefix = ?`,
		counterKey(prefix, year),
	)
	if err != nil {
		return "", err
	}
	if len(res.Rows) > 0 {
		if n := int(res.Rows[0].Int64("last_seq")); n > highest {
			highest = n
		}
	}

	return build(prefix, year, highest+1)
}

// Next reserves the next code for category and year. The counter row is
// bumped with a single upsert, so concurrent callers serialize on it; run it
// in the same transaction as the insert that uses the code.
func (g *Generator) Next(ctx context.Context, q db.Querier, category string, year int) (string, error) {
	prefix := Prefix(category)

	// Seed from existing codes so that assets registered by hand are never
	// reissued.
	highest, err := g.highestExisting(ctx, q, prefix, year)
	if err != nil {
		return "", err
	}

	res, err := q.Execute(ctx,
		`INSERT INTO asset_code_counters (prefix, last_seq) VALUES (?, ?)
		 ON CONFLICT (prefix) DO UPDATE SET last_seq = CASE
		     WHEN asset_code_counters.last_seq >= excluded.last_seq THEN asset_code_counters.last_seq + 1
		     ELSE excluded.last_seq
		 END
		 RETURNING last_seq`,
		counterKey(prefix, year), highest+1,
	)
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 {
		return "", errs.New(errs.Persistence, "asset code counter returned no row")
	}

	return build(prefix, year, int(res.Rows[0].Int64("last_seq")))
}

// highestExisting finds the greatest sequence among stored codes. Ordering by
// the code string is enough because the suffix has a fixed width.
func (g *Generator) highestExisting(ctx context.Context, q db.Querier, prefix string, year int) (int, error) {
	res, err := q.Execute(ctx,
		`SELECT asset_code FROM assets WHERE asset_code LIKE ? ORDER BY asset_code DESC LIMIT 1`,
		counterKey(prefix, year)+"-%",
	)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	return Parse(res.Rows[0].String("asset_code")), nil
}

func build(prefix string, year, seq int) (string, error) {
	if seq > MaxSequence {
		return "", errs.Invalid("sequence exhausted", map[string]string{
			"asset_code": counterKey(prefix, year),
		})
	}
	return Format(prefix, year, seq), nil
}
