// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package normalize

import (
	"testing"

	"github.com/google/uuid"

	"github.com/fanpulse-io/fanpulse/internal/models"
)

func TestInfluencersDedupKeepsHighestFollowers(t *testing.T) {
	entityID := uuid.New()

	items := []models.RawItem{
		rawItem("actor-runner", map[string]any{
			"id":         "1",
			"authorMeta": map[string]any{"name": "FanCamPH", "fans": float64(1000)},
		}),
		rawItem("actor-runner", map[string]any{
			"id": "2",
			"authorMeta": map[string]any{
				"name": "fancamph", "fans": float64(1500),
				"nickName": "Fan Cam PH", "region": "PH",
			},
		}),
	}

	got := Influencers(models.PlatformTikTok, items, entityID)
	if len(got) != 1 {
		t.Fatalf("expected 1 deduped profile, got %d", len(got))
	}

	p := got[0]
	if p.Followers != 1500 {
		t.Errorf("Followers = %d, want 1500 (highest variant)", p.Followers)
	}
	if p.PostCount != 2 {
		t.Errorf("PostCount = %d, want 2", p.PostCount)
	}
	if p.DisplayName != "Fan Cam PH" || p.Location != "PH" {
		t.Errorf("display fields not carried over: %+v", p)
	}
}

func TestInfluencersLowerVariantFillsMissingFields(t *testing.T) {
	entityID := uuid.New()

	items := []models.RawItem{
		rawItem("actor-runner", map[string]any{
			"id": "1",
			"authorMeta": map[string]any{
				"name": "stan_account", "fans": float64(9000),
				"signature": "fan since debut",
			},
		}),
		// Lower follower count: loses, but its avatar fills the gap.
		rawItem("actor-runner", map[string]any{
			"id": "2",
			"authorMeta": map[string]any{
				"name": "Stan_Account", "fans": float64(8000),
				"avatar": "https://cdn.example/a.jpg",
			},
		}),
	}

	got := Influencers(models.PlatformTikTok, items, entityID)
	if len(got) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(got))
	}
	p := got[0]
	if p.Followers != 9000 {
		t.Errorf("Followers = %d, want 9000", p.Followers)
	}
	if p.Bio != "fan since debut" {
		t.Errorf("Bio = %q, want kept from winner", p.Bio)
	}
	if p.AvatarURL != "https://cdn.example/a.jpg" {
		t.Errorf("AvatarURL = %q, want filled from lower variant", p.AvatarURL)
	}
}

func TestInfluencersSkipEmptyUsername(t *testing.T) {
	items := []models.RawItem{
		rawItem("direct-api", map[string]any{"id": "1"}),
		rawItem("direct-api", map[string]any{
			"id":     "2",
			"author": map[string]any{"userName": "updatesph", "followers": float64(2000)},
		}),
	}

	got := Influencers(models.PlatformTwitter, items, uuid.New())
	if len(got) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(got))
	}
	if got[0].Username != "updatesph" {
		t.Errorf("Username = %q, want updatesph", got[0].Username)
	}
}
