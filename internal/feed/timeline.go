package feed

import (
	"sort"
	"time"

	"example.com/murmurfeed/internal/models"
	"github.com/gocql/gocql"
)

// DefaultPageSize is the fixed page size for all murmur listings.
const DefaultPageSize = 10

// Timeline composes the viewer's feed at read time: every murmur whose
// author is in the visible author set (the users the viewer follows,
// plus the viewer), ordered newest first, paginated. Nothing is
// materialized; the result is always recomputed from the social graph
// and the murmur tables.
func (s *Service) Timeline(viewerID string, page int) (MurmurPage, *Error) {
	authors, err := s.store.FollowingIDs(viewerID)
	if err != nil {
		return MurmurPage{}, fromStore(err)
	}
	authors = append(authors, viewerID)

	var merged []models.Murmur
	for _, authorID := range authors {
		murmurs, err := s.store.MurmursByAuthor(authorID)
		if err != nil {
			return MurmurPage{}, fromStore(err)
		}
		merged = append(merged, murmurs...)
	}

	sortMurmurs(merged)
	return s.page(viewerID, merged, page)
}

// AuthoredBy lists a single user's murmurs with the same ordering and
// pagination contract, enriched relative to the viewer (who may differ
// from the author).
func (s *Service) AuthoredBy(viewerID, targetID string, page int) (MurmurPage, *Error) {
	if _, err := s.store.UserByID(targetID); err != nil {
		return MurmurPage{}, fromStore(err)
	}
	murmurs, err := s.store.MurmursByAuthor(targetID)
	if err != nil {
		return MurmurPage{}, fromStore(err)
	}
	sortMurmurs(murmurs)
	return s.page(viewerID, murmurs, page)
}

// page slices the ordered murmur list and enriches the slice. A page
// past the end is not an error: it returns an empty list with the
// counts intact.
func (s *Service) page(viewerID string, murmurs []models.Murmur, page int) (MurmurPage, *Error) {
	if page < 1 {
		page = 1
	}
	total := len(murmurs)
	totalPages := (total + DefaultPageSize - 1) / DefaultPageSize

	start := (page - 1) * DefaultPageSize
	if start > total {
		start = total
	}
	end := start + DefaultPageSize
	if end > total {
		end = total
	}

	views, err := s.enrich(viewerID, murmurs[start:end])
	if err != nil {
		return MurmurPage{}, err
	}
	return MurmurPage{
		Murmurs: views,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalCount:  total,
		},
	}, nil
}

// enrich attaches like counts, the viewer's like flag and the author
// summary to each murmur on the page. Authors are resolved once per
// page.
func (s *Service) enrich(viewerID string, murmurs []models.Murmur) ([]MurmurView, *Error) {
	views := make([]MurmurView, 0, len(murmurs))
	authors := make(map[string]AuthorView)

	for _, m := range murmurs {
		author, ok := authors[m.AuthorID]
		if !ok {
			u, err := s.store.UserByID(m.AuthorID)
			if err != nil {
				return nil, fromStore(err)
			}
			author = authorView(u)
			authors[m.AuthorID] = author
		}

		likeCount, err := s.store.LikeCount(m.ID)
		if err != nil {
			return nil, fromStore(err)
		}
		liked, err := s.store.LikedBy(viewerID, m.ID)
		if err != nil {
			return nil, fromStore(err)
		}

		views = append(views, MurmurView{
			ID:                 m.ID,
			Content:            m.Content,
			Created:            m.Created,
			LikeCount:          likeCount,
			LikedByCurrentUser: liked,
			Author:             author,
		})
	}
	return views, nil
}

// sortMurmurs orders newest first: created_at descending, ties broken
// by id descending (timeuuid time when both ids are timeuuids, lexical
// otherwise) so the order is total and deterministic.
func sortMurmurs(murmurs []models.Murmur) {
	sort.Slice(murmurs, func(i, j int) bool {
		return newerThan(murmurs[i], murmurs[j])
	})
}

func newerThan(a, b models.Murmur) bool {
	if !a.Created.Equal(b.Created) {
		return a.Created.After(b.Created)
	}
	at, aok := timeuuidTime(a.ID)
	bt, bok := timeuuidTime(b.ID)
	if aok && bok && !at.Equal(bt) {
		return at.After(bt)
	}
	return a.ID > b.ID
}

func timeuuidTime(id string) (time.Time, bool) {
	u, err := gocql.ParseUUID(id)
	if err != nil || u.Version() != 1 {
		return time.Time{}, false
	}
	return u.Time(), true
}
