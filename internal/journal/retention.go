package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RetentionPolicy bounds how many rotated segments are kept. The active log
// is never pruned. Zero values disable the corresponding limit.
type RetentionPolicy struct {
	MaxSegments int           // Keep at most this many rotated segments
	MaxAge      time.Duration // Drop segments last written longer ago than this
}

func (p RetentionPolicy) enabled() bool {
	return p.MaxSegments > 0 || p.MaxAge > 0
}

// PruneResult lists the segments a prune removed.
type PruneResult struct {
	Pruned     []string // Segment file names, oldest first
	BytesFreed int64
}

type segmentInfo struct {
	name    string
	path    string
	size    int64
	modTime time.Time
}

// Prune removes rotated segments in dir that fall outside policy, evaluated
// at now.
func Prune(dir string, policy RetentionPolicy, now time.Time) (*PruneResult, error) {
	result := &PruneResult{}
	if !policy.enabled() {
		return result, nil
	}

	segments, err := rotatedSegments(dir)
	if err != nil {
		return nil, err
	}

	excess := 0
	if policy.MaxSegments > 0 && len(segments) > policy.MaxSegments {
		excess = len(segments) - policy.MaxSegments
	}

	for i, seg := range segments {
		expired := policy.MaxAge > 0 && now.Sub(seg.modTime) > policy.MaxAge
		if i >= excess && !expired {
			continue
		}
		if err := os.Remove(seg.path); err != nil {
			return result, fmt.Errorf("failed to remove segment %s: %w", seg.name, err)
		}
		result.Pruned = append(result.Pruned, seg.name)
		result.BytesFreed += seg.size
	}
	return result, nil
}

// rotatedSegments returns the rotated segments in dir, oldest first.
func rotatedSegments(dir string) ([]segmentInfo, error) {
	files, err := LogFiles(dir)
	if err != nil {
		return nil, err
	}

	var segments []segmentInfo
	for _, path := range files {
		name := filepath.Base(path)
		if name == activeLogName {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat segment %s: %w", name, err)
		}
		segments = append(segments, segmentInfo{
			name:    name,
			path:    path,
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return segments, nil
}
