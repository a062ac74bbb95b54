package engine

import (
	"runtime"
	"sort"

	"github.com/rxtech-lab/argo-screener/internal/types"
)

// poolSize is min(requested or configured or CPU count, assets, hard cap), at least 1.
func poolSize(requested, configured, hardCap, assets int) int {
	workers := requested
	if workers <= 0 {
		workers = configured
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if hardCap <= 0 {
		hardCap = DefaultWorkerHardCap
	}

	return max(min(workers, assets, hardCap), 1)
}

// dedupeAssets drops repeated asset ids, keeping the first occurrence.
func dedupeAssets(assetIDs []string) []string {
	seen := make(map[string]struct{}, len(assetIDs))
	assets := make([]string, 0, len(assetIDs))

	for _, assetID := range assetIDs {
		if _, ok := seen[assetID]; ok {
			continue
		}

		seen[assetID] = struct{}{}
		assets = append(assets, assetID)
	}

	return assets
}

// sortResults orders by total return descending, then asset id ascending.
func sortResults(results []types.BacktestResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalReturnPct != results[j].TotalReturnPct {
			return results[i].TotalReturnPct > results[j].TotalReturnPct
		}

		return results[i].AssetID < results[j].AssetID
	})
}

func sortFailures(failures []types.AssetFailure) {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].AssetID < failures[j].AssetID
	})
}
