// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package normalize

import (
	"github.com/fanpulse-io/fanpulse/internal/models"
)

// ProfileMetrics aggregates handle-level numbers out of one raw batch.
// Followers may legitimately be 0 here: some platforms cannot report a
// follower count from a content listing, and the ingestion engine falls back
// to the last stored value in that case.
type ProfileMetrics struct {
	Followers     int64
	PostsCount    int64
	TotalLikes    int64
	TotalComments int64
	TotalShares   int64
	TotalViews    int64
	ItemCount     int
}

// Metrics aggregates a raw batch into profile metrics for one platform.
// Follower and post counts ride along on content payloads (usually under an
// author object) and are taken as the maximum across the batch, since stale
// cached copies of the same profile appear side by side.
func Metrics(platform string, items []models.RawItem) ProfileMetrics {
	contentTable := contentFields[platform]
	profileTable := metricFields[platform]
	if contentTable == nil || profileTable == nil {
		return ProfileMetrics{}
	}

	var m ProfileMetrics
	for _, item := range items {
		if followers := countField(item.Fields, profileTable["followers"]); followers > m.Followers {
			m.Followers = followers
		}
		if posts := countField(item.Fields, profileTable["posts_count"]); posts > m.PostsCount {
			m.PostsCount = posts
		}

		m.TotalLikes += countField(item.Fields, contentTable["likes"])
		m.TotalComments += countField(item.Fields, contentTable["comments"])
		m.TotalShares += countField(item.Fields, contentTable["shares"])
		m.TotalViews += countField(item.Fields, contentTable["views"])
		m.ItemCount++
	}

	if m.PostsCount == 0 {
		m.PostsCount = int64(m.ItemCount)
	}
	return m
}

// AvgLikes returns average likes per item, 0 for an empty batch.
func (m ProfileMetrics) AvgLikes() float64 { return m.avg(m.TotalLikes) }

// AvgComments returns average comments per item, 0 for an empty batch.
func (m ProfileMetrics) AvgComments() float64 { return m.avg(m.TotalComments) }

// AvgShares returns average shares per item, 0 for an empty batch.
func (m ProfileMetrics) AvgShares() float64 { return m.avg(m.TotalShares) }

// EngagementTotal is the summed interaction count across the batch.
func (m ProfileMetrics) EngagementTotal() int64 {
	return m.TotalLikes + m.TotalComments + m.TotalShares
}

func (m ProfileMetrics) avg(total int64) float64 {
	if m.ItemCount == 0 {
		return 0
	}
	return float64(total) / float64(m.ItemCount)
}
