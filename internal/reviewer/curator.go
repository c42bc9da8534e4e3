package reviewer

import (
	"sort"
	"strings"

	"github.com/maxbolgarin/revy/internal/model"
)

const defaultMinDescriptionLength = 10

// CurateFeedback filters low-value items, deduplicates against existing
// host-sourced feedback and stable-sorts the rest: severity rank first,
// then file path, then line number. The ordering is a total order, so
// results are deterministic.
func CurateFeedback(items, existing []*model.FeedbackItem, minDescriptionLength int) []*model.FeedbackItem {
	if minDescriptionLength <= 0 {
		minDescriptionLength = defaultMinDescriptionLength
	}

	curated := make([]*model.FeedbackItem, 0, len(items))
	for _, item := range items {
		if len(strings.TrimSpace(item.Description)) < minDescriptionLength {
			continue
		}
		if isDuplicate(item, existing) {
			continue
		}
		curated = append(curated, item)
	}

	sort.SliceStable(curated, func(i, j int) bool {
		a, b := curated[i], curated[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.LineNumber < b.LineNumber
	})

	return curated
}

// isDuplicate reports whether an item repeats an existing comment: exact
// file+line match plus a case-insensitive substring relation on either the
// titles or the descriptions, in either direction.
func isDuplicate(item *model.FeedbackItem, existing []*model.FeedbackItem) bool {
	for _, other := range existing {
		if other.FilePath != item.FilePath || other.LineNumber != item.LineNumber {
			continue
		}
		if containsEitherWay(item.Title, other.Title) || containsEitherWay(item.Description, other.Description) {
			return true
		}
	}
	return false
}

func containsEitherWay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}
