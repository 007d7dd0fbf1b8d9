package catalog

import "strings"

// Rule pairs a predicate over a lower-cased service name with the value it yields.
type Rule struct {
	Match  func(name string) bool
	Result string
}

// RuleTable is an ordered list of rules; the first matching rule wins.
type RuleTable []Rule

// Resolve returns the result of the first rule matching name, or fallback.
// Matching is case-insensitive.
func (t RuleTable) Resolve(name, fallback string) string {
	lower := strings.ToLower(name)
	for _, r := range t {
		if r.Match(lower) {
			return r.Result
		}
	}
	return fallback
}

// containsAny builds a predicate matching names that contain any keyword.
func containsAny(keywords ...string) func(string) bool {
	return func(name string) bool {
		for _, k := range keywords {
			if strings.Contains(name, k) {
				return true
			}
		}
		return false
	}
}

const (
	DefaultPlatform = "instagram"
	DefaultCategory = "followers"
)

// Category identifiers.
const (
	CategoryFollowers   = "followers"
	CategoryLikes       = "likes"
	CategoryViews       = "views"
	CategorySubscribers = "subscribers"
	CategoryComments    = "comments"
	CategoryShares      = "shares"
)

// PlatformRules infers the social platform from a service name.
var PlatformRules = RuleTable{
	{Match: containsAny("tiktok", "tik tok"), Result: "tiktok"},
	{Match: containsAny("youtube"), Result: "youtube"},
	{Match: containsAny("facebook"), Result: "facebook"},
	{Match: containsAny("twitter"), Result: "twitter"},
	{Match: containsAny("telegram"), Result: "telegram"},
	{Match: containsAny("twitch"), Result: "twitch"},
	{Match: containsAny("kwai"), Result: "kwai"},
	{Match: containsAny("threads"), Result: "threads"},
}

// CategoryRules infers the engagement category from a service name.
var CategoryRules = RuleTable{
	{Match: containsAny("curtida", "like"), Result: CategoryLikes},
	{Match: containsAny("visualiza", "view"), Result: CategoryViews},
	{Match: containsAny("inscrit", "subscriber", "membros"), Result: CategorySubscribers},
	{Match: containsAny("comentário", "comment"), Result: CategoryComments},
	{Match: containsAny("compartilh", "share", "salves"), Result: CategoryShares},
}
