package situation

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/steuerflow/steuerflow/internal/model"
)

// fingerprintBytes is the truncation length of the situation hash: 8 bytes
// (64 bits) keeps accidental collisions negligible at the expected record
// counts while staying short enough to eyeball in audit output.
const fingerprintBytes = 8

// ComputeFingerprint hashes the classification-relevant subset of a
// situation context into a short stable hex string. Source IDs are sorted
// before hashing, so two contexts with the same set of active sources
// produce the same fingerprint regardless of order.
func ComputeFingerprint(ctx model.SituationContext) string {
	ids := make([]string, len(ctx.Sources))
	for i, src := range ctx.Sources {
		ids[i] = src.ID
	}
	sort.Strings(ids)

	sit := ctx.Situation
	canonical := fmt.Sprintf(
		"sid=%d|jur=%s|vat=%s|veh=%t|vtype=%s|vpct=%d|tel=%d|net=%d|ho=%s|src=%s",
		sit.ID,
		sit.Jurisdiction,
		sit.VATStatus,
		sit.CompanyVehicle,
		sit.VehicleType,
		sit.VehicleBusinessPercent,
		sit.TelecomBusinessPercent,
		sit.InternetBusinessPercent,
		sit.HomeOfficeMode,
		strings.Join(ids, ","),
	)

	sum := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("%x", sum[:fingerprintBytes])
}

// FingerprintForDate resolves the context for date and fingerprints it.
// A false second return means no situation covers the date.
func FingerprintForDate(snap *Snapshot, date time.Time) (string, bool) {
	ctx, ok := snap.ContextForDate(date)
	if !ok {
		return "", false
	}
	return ComputeFingerprint(ctx), true
}
