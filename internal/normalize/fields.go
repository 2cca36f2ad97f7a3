// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

/*
fields.go - Canonical field lookup tables

Raw payloads are not uniform even within "the same" provider: the actor-runner
and direct-API backends emit different key names for equivalent data, and
providers rename fields across versions. Every canonical field therefore maps
to an ordered list of acceptable source keys, evaluated first-match-wins.

Keys may use dotted paths ("authorMeta.fans") to reach nested objects. The
fallback chains are value-preserving and deliberately explicit: each entry
corresponds to a genuinely observed upstream schema, so do not collapse them
into fuzzy matching.
*/
package normalize

import (
	"strings"
	"time"
)

// fieldTable maps a canonical field name to its ordered source-key fallbacks.
type fieldTable map[string][]string

// contentFields maps each platform's raw post payload to ContentItem fields.
var contentFields = map[string]fieldTable{
	"tiktok": {
		"external_id":  {"id", "aweme_id", "video_id", "itemId"},
		"text":         {"desc", "text", "title", "description"},
		"url":          {"webVideoUrl", "share_url", "url", "video_url"},
		"likes":        {"diggCount", "stats.diggCount", "digg_count", "statistics.digg_count", "likes"},
		"comments":     {"commentCount", "stats.commentCount", "comment_count", "statistics.comment_count", "comments"},
		"shares":       {"shareCount", "stats.shareCount", "share_count", "statistics.share_count", "shares"},
		"views":        {"playCount", "stats.playCount", "play_count", "statistics.play_count", "views"},
		"published_at": {"createTime", "createTimeISO", "create_time", "created_at"},
		"hashtags":     {"hashtags", "challenges", "textExtra"},
	},
	"instagram": {
		"external_id":  {"id", "pk", "shortCode", "code", "media_id"},
		"text":         {"caption", "caption.text", "edge_media_to_caption.text", "text"},
		"url":          {"url", "permalink", "link"},
		"likes":        {"likesCount", "like_count", "edge_liked_by.count", "likes"},
		"comments":     {"commentsCount", "comment_count", "edge_media_to_comment.count", "comments"},
		"shares":       {"reshareCount", "share_count", "shares"},
		"views":        {"videoViewCount", "videoPlayCount", "view_count", "play_count", "views"},
		"published_at": {"timestamp", "taken_at", "taken_at_timestamp", "created_time"},
		"hashtags":     {"hashtags"},
	},
	"twitter": {
		"external_id":  {"id", "id_str", "rest_id", "tweet_id"},
		"text":         {"text", "full_text", "legacy.full_text", "content"},
		"url":          {"url", "twitterUrl", "expanded_url", "link"},
		"likes":        {"likeCount", "favorite_count", "legacy.favorite_count", "likes"},
		"comments":     {"replyCount", "reply_count", "legacy.reply_count", "replies"},
		"shares":       {"retweetCount", "retweet_count", "legacy.retweet_count", "retweets"},
		"views":        {"viewCount", "views.count", "view_count", "impressions"},
		"published_at": {"createdAt", "created_at", "legacy.created_at", "date"},
		"hashtags":     {"hashtags", "entities.hashtags"},
	},
	"facebook": {
		"external_id":  {"postId", "post_id", "id", "legacyId"},
		"text":         {"text", "message", "post_text", "content"},
		"url":          {"url", "postUrl", "permalink_url", "link"},
		"likes":        {"likes", "likesCount", "reactions.like", "reaction_count", "reactionsCount"},
		"comments":     {"comments", "commentsCount", "comments_count", "comment_count"},
		"shares":       {"shares", "sharesCount", "shares_count", "share_count"},
		"views":        {"viewsCount", "video_view_count", "views"},
		"published_at": {"time", "created_time", "timestamp", "date"},
		"hashtags":     {"hashtags"},
	},
	"youtube": {
		"external_id":  {"id", "videoId", "video_id"},
		"text":         {"title", "text", "description"},
		"url":          {"url", "link", "video_url"},
		"likes":        {"likes", "likeCount", "statistics.likeCount", "like_count"},
		"comments":     {"commentsCount", "commentCount", "statistics.commentCount", "comment_count"},
		"shares":       {"shares", "shareCount"},
		"views":        {"viewCount", "views", "statistics.viewCount", "view_count"},
		"published_at": {"date", "publishedAt", "published_at", "uploadDate"},
		"hashtags":     {"hashtags", "tags"},
	},
	"reddit": {
		"external_id":  {"id", "postId", "name"},
		"text":         {"title", "body", "selftext", "text"},
		"url":          {"url", "permalink", "link"},
		"likes":        {"upVotes", "ups", "score", "upvotes"},
		"comments":     {"numberOfComments", "num_comments", "commentsCount", "comments"},
		"shares":       {"crosspostCount", "num_crossposts"},
		"views":        {"viewCount", "views"},
		"published_at": {"createdAt", "created_utc", "created", "date"},
		"hashtags":     {"flair"},
	},
}

// metricFields maps profile-level payload keys per platform. Follower counts
// often ride along on content payloads under an author object, so those paths
// appear here too.
var metricFields = map[string]fieldTable{
	"tiktok": {
		"followers":   {"authorMeta.fans", "author.follower_count", "followerCount", "follower_count", "fans", "followers"},
		"posts_count": {"authorMeta.video", "author.aweme_count", "videoCount", "video_count", "awemeCount"},
	},
	"instagram": {
		"followers":   {"followersCount", "follower_count", "edge_followed_by.count", "owner.follower_count", "followers"},
		"posts_count": {"postsCount", "media_count", "edge_owner_to_timeline_media.count", "posts"},
	},
	"twitter": {
		"followers":   {"author.followers", "user.followers_count", "followersCount", "followers_count", "followers"},
		"posts_count": {"author.statusesCount", "user.statuses_count", "statusesCount", "tweets_count"},
	},
	"facebook": {
		"followers":   {"followers", "followersCount", "fan_count", "page.followers", "likes_count"},
		"posts_count": {"postsCount", "posts_count"},
	},
	"youtube": {
		"followers":   {"channel.subscriberCount", "subscriberCount", "subscriber_count", "numberOfSubscribers", "subscribers"},
		"posts_count": {"channel.videoCount", "videoCount", "video_count", "numberOfVideos"},
	},
	"reddit": {
		"followers":   {"subreddit.numberOfMembers", "subscribers", "members", "subscriber_count"},
		"posts_count": {"postsCount", "posts_count"},
	},
}

// influencerFields maps author/creator payload keys per platform.
var influencerFields = map[string]fieldTable{
	"tiktok": {
		"username":     {"authorMeta.name", "author.unique_id", "authorUniqueId", "username", "uniqueId"},
		"display_name": {"authorMeta.nickName", "author.nickname", "nickname", "displayName"},
		"avatar_url":   {"authorMeta.avatar", "author.avatar_thumb.url_list", "avatarUrl", "avatar"},
		"bio":          {"authorMeta.signature", "author.signature", "bio"},
		"location":     {"authorMeta.region", "author.region", "region", "location"},
		"followers":    {"authorMeta.fans", "author.follower_count", "followerCount", "fans", "followers"},
	},
	"instagram": {
		"username":     {"ownerUsername", "owner.username", "username", "user.username"},
		"display_name": {"ownerFullName", "owner.full_name", "fullName", "full_name"},
		"avatar_url":   {"owner.profile_pic_url", "profilePicUrl", "profile_pic_url", "avatar"},
		"bio":          {"owner.biography", "biography", "bio"},
		"location":     {"locationName", "location.name", "location"},
		"followers":    {"owner.follower_count", "followersCount", "follower_count", "followers"},
	},
	"twitter": {
		"username":     {"author.userName", "user.screen_name", "screenName", "username", "handle"},
		"display_name": {"author.name", "user.name", "name", "displayName"},
		"avatar_url":   {"author.profilePicture", "user.profile_image_url_https", "profileImageUrl", "avatar"},
		"bio":          {"author.description", "user.description", "bio"},
		"location":     {"author.location", "user.location", "location"},
		"followers":    {"author.followers", "user.followers_count", "followersCount", "followers"},
	},
	"facebook": {
		"username":     {"user.name", "pageName", "username", "name"},
		"display_name": {"user.name", "pageName", "name"},
		"avatar_url":   {"user.profilePic", "avatar"},
		"bio":          {"pageDescription", "about", "bio"},
		"location":     {"pageLocation", "location"},
		"followers":    {"user.followers", "pageFollowers", "followers"},
	},
	"youtube": {
		"username":     {"channelName", "channel.name", "channelTitle", "author"},
		"display_name": {"channelName", "channel.name", "channelTitle"},
		"avatar_url":   {"channel.avatar", "channelAvatar", "avatar"},
		"bio":          {"channel.description", "channelDescription"},
		"location":     {"channel.country", "channelLocation", "location"},
		"followers":    {"channel.subscriberCount", "subscriberCount", "numberOfSubscribers", "subscribers"},
	},
	"reddit": {
		"username":     {"author", "username", "authorName"},
		"display_name": {"author", "username"},
		"avatar_url":   {"authorAvatar", "avatar"},
		"bio":          {"bio"},
		"location":     {"location"},
		"followers":    {"authorKarma", "karma", "followers"},
	},
}

// lookup resolves the first present key of an ordered fallback list against a
// raw payload. Dotted keys traverse nested objects; a missing segment simply
// moves on to the next fallback.
func lookup(fields map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if v, ok := lookupPath(fields, key); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupPath(fields map[string]any, path string) (any, bool) {
	cur := any(fields)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// stringField returns the first matching field as a trimmed string, or "".
func stringField(fields map[string]any, keys []string) string {
	v, ok := lookup(fields, keys)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case []any:
		// Some avatar/url fields arrive as url lists; take the first entry.
		if len(s) > 0 {
			if first, ok := s[0].(string); ok {
				return strings.TrimSpace(first)
			}
		}
	}
	return ""
}

// countField returns the first matching field parsed as a count, or 0.
// Missing and unparseable values both default to 0 per the normalizer
// contract; callers must not treat 0 as "known zero".
func countField(fields map[string]any, keys []string) int64 {
	v, ok := lookup(fields, keys)
	if !ok {
		return 0
	}
	return ParseCount(v)
}

// timeField returns the first matching field parsed as a timestamp, or nil.
// A nil date means "unknown, do not block ingestion".
func timeField(fields map[string]any, keys []string, now time.Time) *time.Time {
	v, ok := lookup(fields, keys)
	if !ok {
		return nil
	}
	return parseTimeAt(v, now)
}

// listField returns the first matching field as a slice, or nil.
func listField(fields map[string]any, keys []string) []any {
	v, ok := lookup(fields, keys)
	if !ok {
		return nil
	}
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}
