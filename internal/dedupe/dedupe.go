// Package dedupe finds authors that are probably the same person.
package dedupe

import (
	"sort"
	"strings"

	"literature-manager/internal/domain"
)

// Pair is one candidate merge for manual review.
type Pair struct {
	First  domain.Author `json:"first"`
	Second domain.Author `json:"second"`
}

// Group is a transitive cluster of likely duplicates, at least two authors.
type Group struct {
	Authors []domain.Author `json:"authors"`
	Pairs   []Pair          `json:"pairs"`
}

// IsPotentialDuplicate reports whether a and b match on both names.
func IsPotentialDuplicate(a, b domain.Author) bool {
	return LastNameMatch(a.LastName, b.LastName) && FirstNameMatch(a.FirstName, b.FirstName)
}

// unionFind is a disjoint set over indexes into the author slice.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// FindDuplicateGroups compares every pair of authors and returns the
// connected components of the "potential duplicate" relation. Matching is
// transitive: A~B and B~C put A, B and C in one group.
func FindDuplicateGroups(authors []domain.Author) []Group {
	uf := newUnionFind(len(authors))
	for i := 0; i < len(authors); i++ {
		for j := i + 1; j < len(authors); j++ {
			if IsPotentialDuplicate(authors[i], authors[j]) {
				uf.union(i, j)
			}
		}
	}

	members := make(map[int][]domain.Author)
	var roots []int
	for i, a := range authors {
		root := uf.find(i)
		if _, ok := members[root]; !ok {
			roots = append(roots, root)
		}
		members[root] = append(members[root], a)
	}

	var groups []Group
	for _, root := range roots {
		list := members[root]
		if len(list) < 2 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool {
			return lessByName(list[i], list[j])
		})
		groups = append(groups, Group{Authors: list, Pairs: pairs(list)})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Authors[0], groups[j].Authors[0]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		return a.FirstName < b.FirstName
	})
	return groups
}

func lessByName(a, b domain.Author) bool {
	al, bl := strings.ToLower(a.LastName), strings.ToLower(b.LastName)
	if al != bl {
		return al < bl
	}
	return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
}

func pairs(list []domain.Author) []Pair {
	out := make([]Pair, 0, len(list)*(len(list)-1)/2)
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			out = append(out, Pair{First: list[i], Second: list[j]})
		}
	}
	return out
}
