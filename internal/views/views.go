// Package views computes read-only aggregates over roster records. Every
// function is pure: it takes already-loaded slices and a caller-supplied now,
// holds no state, and is recomputed on every read. Record counts are small
// enough that correctness beats caching here.
package views

import (
	"sort"
	"time"

	"github.com/steeplehq/steeple/internal/model"
)

// TagUsage pairs a tag with the number of people referencing it.
type TagUsage struct {
	Tag   model.Tag `json:"tag"`
	Count int       `json:"count"`
}

// DashboardStats is the landing-page summary.
type DashboardStats struct {
	Total        int        `json:"total"`
	Active       int        `json:"active"`
	Inactive     int        `json:"inactive"`
	Visitors     int        `json:"visitors"`
	NewThisMonth int        `json:"new_this_month"`
	TopTags      []TagUsage `json:"top_tags"`
}

// Dashboard computes the summary from a snapshot of people and tags."New this
// month" counts people created since the first day of now's calendar month.
func Dashboard(people []model.Person, tags []model.Tag, now time.Time) DashboardStats {
	stats := DashboardStats{Total: len(people)}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for _, p := range people {
		switch p.Status {
		case model.StatusActive:
			stats.Active++
		case model.StatusInactive:
			stats.Inactive++
		case model.StatusVisitor:
			stats.Visitors++
		}
		if !p.CreatedAt.Before(monthStart) {
			stats.NewThisMonth++
		}
	}

	stats.TopTags = TopTags(people, tags, 5)
	return stats
}

// TopTags ranks non-archived tags by usage count descending. Ties go to the
// earlier-created tag; id breaks exact creation-time ties deterministically.
func TopTags(people []model.Person, tags []model.Tag, n int) []TagUsage {
	counts := make(map[int64]int)
	for _, p := range people {
		for _, id := range p.TagIDs {
			counts[id]++
		}
	}

	usages := make([]TagUsage, 0, len(tags))
	for _, t := range tags {
		if t.Archived {
			continue
		}
		usages = append(usages, TagUsage{Tag: t, Count: counts[t.ID]})
	}

	sort.SliceStable(usages, func(i, j int) bool {
		if usages[i].Count != usages[j].Count {
			return usages[i].Count > usages[j].Count
		}
		if !usages[i].Tag.CreatedAt.Equal(usages[j].Tag.CreatedAt) {
			return usages[i].Tag.CreatedAt.Before(usages[j].Tag.CreatedAt)
		}
		return usages[i].Tag.ID < usages[j].Tag.ID
	})

	if len(usages) > n {
		usages = usages[:n]
	}
	return usages
}

// UsageCount returns how many people reference the tag.
func UsageCount(people []model.Person, tagID int64) int {
	count := 0
	for _, p := range people {
		for _, id := range p.TagIDs {
			if id == tagID {
				count++
				break
			}
		}
	}
	return count
}

// RosterEntry joins a membership row with its resolved person.
type RosterEntry struct {
	Member model.HouseholdMember `json:"member"`
	Person model.Person          `json:"person"`
}

// Roster joins members with their person records. A member whose person does
// not resolve is omitted rather than crashing the view: the integrity layer
// makes that impossible, but a read must not fall over on bad data.
func Roster(members []model.HouseholdMember, people []model.Person) []RosterEntry {
	byID := make(map[int64]model.Person, len(people))
	for _, p := range people {
		byID[p.ID] = p
	}

	entries := make([]RosterEntry, 0, len(members))
	for _, m := range members {
		p, ok := byID[m.PersonID]
		if !ok {
			continue
		}
		entries = append(entries, RosterEntry{Member: m, Person: p})
	}
	return entries
}
