// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

// Package normalize maps provider-specific raw payloads into the canonical
// record families: content items, metric snapshots and influencer profiles.
// Normalizers are pure functions; they never touch the network or the store,
// and they never return errors: missing numeric fields default to 0 and
// unparseable dates come back nil.
package normalize

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

// contentTypeByPlatform names the canonical content family per platform.
var contentTypeByPlatform = map[string]string{
	models.PlatformTikTok:    "video",
	models.PlatformYouTube:   "video",
	models.PlatformInstagram: "post",
	models.PlatformFacebook:  "post",
	models.PlatformTwitter:   "post",
	models.PlatformReddit:    "thread",
}

// Content maps raw post payloads into canonical ContentItem records for an
// entity. Items without a resolvable external id are dropped; there is
// nothing to dedup them against. Unknown platforms yield an empty slice.
func Content(platform string, items []models.RawItem, entityID uuid.UUID) []models.ContentItem {
	return contentAt(platform, items, entityID, time.Now().UTC())
}

func contentAt(platform string, items []models.RawItem, entityID uuid.UUID, now time.Time) []models.ContentItem {
	table, ok := contentFields[platform]
	if !ok {
		return nil
	}

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		externalID := stringField(item.Fields, table["external_id"])
		if externalID == "" {
			continue
		}

		text := stringField(item.Fields, table["text"])
		content := models.ContentItem{
			ID:          uuid.New(),
			EntityID:    entityID,
			Platform:    platform,
			ExternalID:  externalID,
			ContentType: contentTypeByPlatform[platform],
			Text:        text,
			URL:         stringField(item.Fields, table["url"]),
			Likes:       countField(item.Fields, table["likes"]),
			Comments:    countField(item.Fields, table["comments"]),
			Shares:      countField(item.Fields, table["shares"]),
			Views:       countField(item.Fields, table["views"]),
			PublishedAt: timeField(item.Fields, table["published_at"], now),
			Hashtags:    contentHashtags(item.Fields, table["hashtags"], text),
			Source:      item.Source,
			CreatedAt:   now,
		}
		out = append(out, content)
	}
	return out
}

// contentHashtags prefers the platform's native hashtag field and falls back
// to regex extraction over the free text.
func contentHashtags(fields map[string]any, keys []string, text string) []string {
	native := listField(fields, keys)
	if len(native) == 0 {
		return ExtractHashtags(text)
	}

	seen := make(map[string]bool, len(native))
	tags := make([]string, 0, len(native))
	for _, v := range native {
		tag := hashtagValue(v)
		if tag == "" {
			continue
		}
		tag = strings.ToLower(strings.TrimPrefix(tag, "#"))
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return ExtractHashtags(text)
	}
	return tags
}

// hashtagValue handles both bare strings and hashtag objects
// ({"name": "..."} / {"title": "..."} / {"text": "..."}, shape varies by
// provider).
func hashtagValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"name", "title", "text", "hashtagName", "tag"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
