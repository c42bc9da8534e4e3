package reviewer

import (
	"context"
	"fmt"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/revy/internal/model"
)

// ResolvePosition builds the host comment position for a feedback item, or
// returns nil when the item can only be posted as a general comment. The
// model's line number is trusted as a new-file coordinate: prompts present
// new-file content with new-file line numbers. OldLine is left unset for
// the host to infer.
func ResolvePosition(item *model.FeedbackItem, fileDiffs []*model.FileDiff, version *model.DiffVersion) *model.Position {
	if item == nil || item.LineNumber <= 0 || item.Position != nil || version == nil {
		return nil
	}

	var match *model.FileDiff
	for _, fd := range fileDiffs {
		if fd.NewPath == item.FilePath {
			match = fd
			break
		}
	}
	if match == nil {
		return nil
	}

	return &model.Position{
		BaseSHA:  version.BaseSHA,
		StartSHA: version.StartSHA,
		HeadSHA:  version.HeadSHA,
		OldPath:  match.OldPath,
		NewPath:  match.NewPath,
		NewLine:  item.LineNumber,
	}
}

// PostOutcome is the explicit result of posting one feedback item: the
// inline-vs-general fallback is visible here instead of being hidden in
// error handling.
type PostOutcome struct {
	Item   *model.FeedbackItem
	Posted bool
	Inline bool
	Err    error
}

// postFeedbackItem drives one item through the posting state machine:
// pending -> submitting -> submitted | error. An inline rejection by the
// host falls back to a general comment embedding the file path and line as
// plain text; only when that also fails does the item reach error status.
func (s *Reviewer) postFeedbackItem(ctx context.Context, projectID string, mrIID int, item *model.FeedbackItem) PostOutcome {
	item.Status = model.FeedbackStatusSubmitting

	comment := &model.Comment{
		Body:     formatFeedbackBody(item),
		FilePath: item.FilePath,
		Line:     item.LineNumber,
		Type:     model.CommentTypeInline,
	}

	if item.Position != nil {
		err := s.provider.CreateComment(ctx, projectID, mrIID, comment, item.Position)
		if err == nil {
			item.Status = model.FeedbackStatusSubmitted
			return PostOutcome{Item: item, Posted: true, Inline: true}
		}
		if !errm.Is(err, model.ErrInvalidPosition) {
			item.Status = model.FeedbackStatusError
			return PostOutcome{Item: item, Err: err}
		}
		// Host rejected the position, retry as a general comment
	}

	general := &model.Comment{
		Body: formatGeneralBody(item),
		Type: model.CommentTypeGeneral,
	}
	if err := s.provider.CreateComment(ctx, projectID, mrIID, general, nil); err != nil {
		item.Status = model.FeedbackStatusError
		return PostOutcome{Item: item, Err: errm.Wrap(err, "failed to post general comment")}
	}

	item.Status = model.FeedbackStatusSubmitted
	return PostOutcome{Item: item, Posted: true}
}

func formatFeedbackBody(item *model.FeedbackItem) string {
	body := fmt.Sprintf("**%s** [%s]\n\n%s", item.Title, item.Severity, item.Description)
	if item.LineContent != "" {
		body += fmt.Sprintf("\n\n```\n%s\n```", item.LineContent)
	}
	return body
}

func formatGeneralBody(item *model.FeedbackItem) string {
	location := item.FilePath
	if item.LineNumber > 0 {
		location = fmt.Sprintf("%s:%d", item.FilePath, item.LineNumber)
	}
	if location == "" {
		return formatFeedbackBody(item)
	}
	return fmt.Sprintf("`%s`\n\n%s", location, formatFeedbackBody(item))
}
