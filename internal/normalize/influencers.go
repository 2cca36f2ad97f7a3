// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package normalize

import (
	"strings"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// Influencers extracts author profiles from a raw content batch. Profiles
// are deduplicated within the call by lowercase username: the variant with
// the highest follower count wins, and PostCount counts how many items the
// username appeared on. Items without a resolvable username are skipped.
func Influencers(platform string, items []models.RawItem, entityID uuid.UUID) []models.InfluencerProfile {
	table, ok := influencerFields[platform]
	if !ok {
		return nil
	}

	byUsername := make(map[string]*models.InfluencerProfile)
	order := make([]string, 0, len(items))

	for _, item := range items {
		username := stringField(item.Fields, table["username"])
		if username == "" {
			continue
		}
		key := strings.ToLower(username)

		candidate := models.InfluencerProfile{
			ID:          uuid.New(),
			EntityID:    entityID,
			Platform:    platform,
			Username:    username,
			DisplayName: stringField(item.Fields, table["display_name"]),
			AvatarURL:   stringField(item.Fields, table["avatar_url"]),
			Bio:         stringField(item.Fields, table["bio"]),
			Location:    stringField(item.Fields, table["location"]),
			Followers:   countField(item.Fields, table["followers"]),
		}

		existing, ok := byUsername[key]
		if !ok {
			candidate.PostCount = 1
			byUsername[key] = &candidate
			order = append(order, key)
			continue
		}

		existing.PostCount++
		if candidate.Followers > existing.Followers {
			// Higher-follower variant wins, but keep display fields the
			// loser had and the winner lacks.
			candidate.PostCount = existing.PostCount
			fillMissing(&candidate, existing)
			byUsername[key] = &candidate
		} else {
			fillMissing(existing, &candidate)
		}
	}

	out := make([]models.InfluencerProfile, 0, len(byUsername))
	for _, key := range order {
		out = append(out, *byUsername[key])
	}
	return out
}

func fillMissing(dst, src *models.InfluencerProfile) {
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if dst.AvatarURL == "" {
		dst.AvatarURL = src.AvatarURL
	}
	if dst.Bio == "" {
		dst.Bio = src.Bio
	}
	if dst.Location == "" {
		dst.Location = src.Location
	}
}
