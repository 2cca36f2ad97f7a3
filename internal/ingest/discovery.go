// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package ingest

import (
	"sort"
	"strings"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// filterInfluencers keeps only profiles with real signal: a username, enough
// followers, enough appearances in the batch, and a location inside the
// configured regions when a location is present at all.
func (e *Engine) filterInfluencers(profiles []models.InfluencerProfile) []models.InfluencerProfile {
	kept := make([]models.InfluencerProfile, 0, len(profiles))
	for _, p := range profiles {
		if strings.TrimSpace(p.Username) == "" {
			continue
		}
		if p.Followers <= e.cfg.MinInfluencerFollowers {
			continue
		}
		if p.PostCount < e.cfg.MinInfluencerPosts {
			continue
		}
		if p.Location != "" && !e.locationAllowed(p.Location) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func (e *Engine) locationAllowed(location string) bool {
	if len(e.cfg.InfluencerRegions) == 0 {
		return true
	}
	loc := strings.ToLower(location)
	for _, region := range e.cfg.InfluencerRegions {
		if strings.Contains(loc, strings.ToLower(region)) {
			return true
		}
	}
	return false
}

// discoveryCandidates counts hashtag occurrences across the batch and
// reports tags frequent enough that do not refer to any already-tracked
// entity. Matching against each entity's name, slug, and individual name
// tokens is case-insensitive. Candidates are advisory; nothing is persisted.
func (e *Engine) discoveryCandidates(tracked []models.TrackedEntity, items []models.ContentItem) []models.DiscoveryCandidate {
	selfTags := trackedTags(tracked)

	counts := make(map[string]int)
	for _, item := range items {
		for _, tag := range item.Hashtags {
			counts[strings.ToLower(tag)]++
		}
	}

	var candidates []models.DiscoveryCandidate
	for tag, n := range counts {
		if n < e.cfg.DiscoveryMinOccurrences {
			continue
		}
		if selfTags[tag] {
			continue
		}
		candidates = append(candidates, models.DiscoveryCandidate{Tag: tag, Occurrences: n})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Occurrences != candidates[j].Occurrences {
			return candidates[i].Occurrences > candidates[j].Occurrences
		}
		return candidates[i].Tag < candidates[j].Tag
	})
	return candidates
}

func trackedTags(tracked []models.TrackedEntity) map[string]bool {
	tags := make(map[string]bool, len(tracked)*3)
	for _, entity := range tracked {
		tags[strings.ToLower(entity.Slug)] = true
		tags[strings.ToLower(strings.ReplaceAll(entity.Name, " ", ""))] = true
		for _, token := range strings.Fields(strings.ToLower(entity.Name)) {
			tags[token] = true
		}
	}
	return tags
}
