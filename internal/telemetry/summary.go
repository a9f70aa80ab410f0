// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"sort"
	"strings"
	"time"
)

// Summary aggregates a set of entries.
type Summary struct {
	Total       int
	Failures    int
	AvgDuration time.Duration
	MaxDuration time.Duration

	// ByMode counts entries per mode (the part of CommandID before ':')
	ByMode map[string]int

	// TopCommands lists the most frequent command ids, most frequent first
	TopCommands []CommandCount
}

// CommandCount is a command id with its occurrence count.
type CommandCount struct {
	CommandID string
	Count     int
}

// SuccessRate returns the fraction of successful entries, or 0 when empty.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Total-s.Failures) / float64(s.Total)
}

// Summarize aggregates entries, keeping at most topN command ids.
func Summarize(entries []Entry, topN int) Summary {
	s := Summary{ByMode: make(map[string]int)}
	counts := make(map[string]int)

	var total time.Duration
	for _, e := range entries {
		s.Total++
		if !e.Success {
			s.Failures++
		}
		total += e.Duration
		if e.Duration > s.MaxDuration {
			s.MaxDuration = e.Duration
		}

		mode, _, _ := strings.Cut(e.CommandID, ":")
		s.ByMode[mode]++
		counts[e.CommandID]++
	}
	if s.Total > 0 {
		s.AvgDuration = total / time.Duration(s.Total)
	}

	for id, n := range counts {
		s.TopCommands = append(s.TopCommands, CommandCount{CommandID: id, Count: n})
	}
	sort.Slice(s.TopCommands, func(i, j int) bool {
		if s.TopCommands[i].Count != s.TopCommands[j].Count {
			return s.TopCommands[i].Count > s.TopCommands[j].Count
		}
		return s.TopCommands[i].CommandID < s.TopCommands[j].CommandID
	})
	if topN >= 0 && len(s.TopCommands) > topN {
		s.TopCommands = s.TopCommands[:topN]
	}
	return s
}
