package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNetworkFormed BookmarkType = "network_formed"
	BookmarkTrailCollapse BookmarkType = "trail_collapse"
	BookmarkStableNetwork BookmarkType = "stable_network"
)

// Bookmark marks a notable window in a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

const (
	// networkShare is the top-decile share above which trail is considered
	// to have condensed into a network.
	networkShare = 0.5
	// collapseFraction of the peak total below which the trail has collapsed.
	collapseFraction = 0.01
	// stableWindows of low coverage variation trigger a stable bookmark.
	stableWindows = 5
	// stableCV2 bounds the squared coefficient of variation of coverage.
	stableCV2 = 0.0025
)

// BookmarkDetector detects notable moments in the trail network.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	networkSeen        bool
	peakTotal          float64
	collapsed          bool
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 4 {
		historySize = 4
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Reset clears history and re-arms every bookmark, for a new or restored run.
func (bd *BookmarkDetector) Reset() {
	clear(bd.history)
	bd.historyIdx = 0
	bd.historyFull = false
	bd.networkSeen = false
	bd.peakTotal = 0
	bd.collapsed = false
	bd.stableWindowsCount = 0
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkNetworkFormed(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCollapse(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if b := bd.checkStable(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkNetworkFormed fires once, the first time trail mass concentrates.
func (bd *BookmarkDetector) checkNetworkFormed(stats WindowStats) *Bookmark {
	if bd.networkSeen || stats.TopDecileShare < networkShare {
		return nil
	}
	bd.networkSeen = true
	return &Bookmark{
		Type:        BookmarkNetworkFormed,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Top decile holds %.0f%% of trail", stats.TopDecileShare*100),
	}
}

// checkCollapse fires when the total trail falls far below its peak, and
// re-arms once the trail has recovered to half the peak.
func (bd *BookmarkDetector) checkCollapse(stats WindowStats) *Bookmark {
	if stats.FieldTotal > bd.peakTotal {
		bd.peakTotal = stats.FieldTotal
	}
	if bd.peakTotal == 0 {
		return nil
	}
	if bd.collapsed {
		if stats.FieldTotal >= bd.peakTotal/2 {
			bd.collapsed = false
		}
		return nil
	}
	if stats.FieldTotal < bd.peakTotal*collapseFraction {
		bd.collapsed = true
		return &Bookmark{
			Type:        BookmarkTrailCollapse,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Trail total %.1f fell below %.0f%% of peak %.1f", stats.FieldTotal, collapseFraction*100, bd.peakTotal),
		}
	}
	return nil
}

// checkStable fires once coverage has varied little for stableWindows
// consecutive windows.
func (bd *BookmarkDetector) checkStable(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 4 || stats.FieldTotal == 0 {
		bd.stableWindowsCount = 0
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += h.Coverage
	}
	mean := sum / float64(len(history))

	var variance float64
	for _, h := range history {
		d := h.Coverage - mean
		variance += d * d
	}
	variance /= float64(len(history))

	if mean > 0 && variance/(mean*mean) < stableCV2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == stableWindows {
		return &Bookmark{
			Type:        BookmarkStableNetwork,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Coverage steady near %.1f%% over %d windows", mean*100, stableWindows),
		}
	}
	return nil
}
