package history

import (
	"fmt"
	"math"
)

func BuildTrendReport(snapshots []Snapshot) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:      current.Timestamp,
			RunID:          current.RunID,
			ProtocolCount:  current.ProtocolCount,
			DuplicateCount: current.DuplicateCount,
			ConflictCount:  current.ConflictCount,
			WarningCount:   current.WarningCount,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaProtocols = current.ProtocolCount - prev.ProtocolCount
			point.DeltaDuplicates = current.DuplicateCount - prev.DuplicateCount
			point.DeltaConflicts = current.ConflictCount - prev.ConflictCount
			point.DeltaCoverage = round2(current.DocstringCoverage - prev.DocstringCoverage)
		}

		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		ScanCount:     len(points),
		Points:        points,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
