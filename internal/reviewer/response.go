package reviewer

import (
	"regexp"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kaptinlin/jsonrepair"
	"github.com/maxbolgarin/revy/internal/model"
)

// ResponseFormat selects how model output is extracted
type ResponseFormat string

const (
	FormatJSON     ResponseFormat = "json"
	FormatMarkdown ResponseFormat = "markdown"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// responseFeedbackItem is the wire shape of one feedback entry
type responseFeedbackItem struct {
	FilePath    string `json:"file_path"`
	Line        int    `json:"line"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	LineContent string `json:"line_content"`
}

// responseBody is the wire shape of the whole model response
type responseBody struct {
	Summary       string                 `json:"summary"`
	OverallRating string                 `json:"overall_rating"`
	Feedback      []responseFeedbackItem `json:"feedback"`
}

// ParseModelResponse parses raw model output into structured feedback.
// It never discards the model's output: when nothing can be extracted it
// synthesizes a single info-severity item embedding the raw text, so a
// human can still see what the model said.
func ParseModelResponse(raw string, format ResponseFormat) *model.ModelResponse {
	if strings.TrimSpace(raw) == "" {
		return fallbackResponse(raw)
	}

	var (
		resp *model.ModelResponse
		ok   bool
	)
	if format == FormatMarkdown {
		resp, ok = parseMarkdownResponse(raw)
	} else {
		resp, ok = parseJSONResponse(raw)
	}
	if !ok {
		return fallbackResponse(raw)
	}
	return resp
}

func parseJSONResponse(raw string) (*model.ModelResponse, bool) {
	jsonStr, ok := extractJSONObject(raw)
	if !ok {
		return nil, false
	}

	var body responseBody
	if err := json.Unmarshal([]byte(jsonStr), &body); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(jsonStr)
		if repairErr != nil {
			return nil, false
		}
		if err := json.Unmarshal([]byte(repaired), &body); err != nil {
			return nil, false
		}
	}

	return convertResponseBody(body), true
}

// extractJSONObject finds the first balanced top-level JSON object via
// brace matching, skipping braces inside string literals.
func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]

		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}

	return "", false
}

var (
	summarySectionRegex  = regexp.MustCompile(`(?s)## Summary\s*\n(.*?)(\n## |\z)`)
	ratingSectionRegex   = regexp.MustCompile(`(?s)## Overall Rating\s*\n(.*?)(\n## |\z)`)
	feedbackSectionRegex = regexp.MustCompile(`(?s)## Feedback\s*\n(.*?)(\n## |\z)`)
)

func parseMarkdownResponse(raw string) (*model.ModelResponse, bool) {
	summary := firstSubmatch(summarySectionRegex, raw)
	rating := firstSubmatch(ratingSectionRegex, raw)
	feedbackBlock := firstSubmatch(feedbackSectionRegex, raw)

	if summary == "" && rating == "" && feedbackBlock == "" {
		return nil, false
	}

	resp := &model.ModelResponse{
		Summary:       strings.TrimSpace(summary),
		OverallRating: model.ParseOverallRating(rating),
	}

	for _, block := range strings.Split(feedbackBlock, "\n---") {
		if item := parseMarkdownFeedbackItem(block); item != nil {
			resp.Feedback = append(resp.Feedback, item)
		}
	}

	return resp, true
}

func firstSubmatch(re *regexp.Regexp, raw string) string {
	matches := re.FindStringSubmatch(raw)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(matches[1])
}

var fieldLineRegex = regexp.MustCompile(`^[-*\s]*\*\*(\w[\w ]*)\*\*:\s*(.*)$`)

// parseMarkdownFeedbackItem parses one ----delimited bulleted item of the
// form "- **File**: a.go" / "- **Line**: 10" / "- **Severity**: warning" /
// "- **Title**: ..." / "- **Description**: ...".
func parseMarkdownFeedbackItem(block string) *model.FeedbackItem {
	fields := make(map[string]string)
	var lastKey string

	for _, line := range strings.Split(block, "\n") {
		matches := fieldLineRegex.FindStringSubmatch(strings.TrimSpace(line))
		if len(matches) == 3 {
			lastKey = strings.ToLower(matches[1])
			fields[lastKey] = strings.TrimSpace(matches[2])
			continue
		}
		// Continuation of a multi-line field value
		if lastKey != "" && strings.TrimSpace(line) != "" {
			fields[lastKey] += "\n" + strings.TrimSpace(line)
		}
	}

	if len(fields) == 0 {
		return nil
	}

	line, _ := strconv.Atoi(fields["line"])
	item := &model.FeedbackItem{
		FilePath:    fields["file"],
		LineNumber:  line,
		Severity:    model.ParseSeverity(fields["severity"]),
		Title:       fields["title"],
		Description: fields["description"],
		LineContent: fields["line content"],
		Status:      model.FeedbackStatusPending,
	}
	if item.Title == "" && item.Description == "" {
		return nil
	}
	return item
}

func convertResponseBody(body responseBody) *model.ModelResponse {
	resp := &model.ModelResponse{
		Summary:       strings.TrimSpace(body.Summary),
		OverallRating: model.ParseOverallRating(body.OverallRating),
	}
	for _, raw := range body.Feedback {
		resp.Feedback = append(resp.Feedback, &model.FeedbackItem{
			FilePath:    raw.FilePath,
			LineNumber:  raw.Line,
			Severity:    model.ParseSeverity(raw.Severity),
			Title:       strings.TrimSpace(raw.Title),
			Description: strings.TrimSpace(raw.Description),
			LineContent: raw.LineContent,
			Status:      model.FeedbackStatusPending,
		})
	}
	return resp
}

// fallbackResponse wraps unparseable model output into one info item
func fallbackResponse(raw string) *model.ModelResponse {
	return &model.ModelResponse{
		OverallRating: model.RatingComment,
		Feedback: []*model.FeedbackItem{{
			Severity:    model.SeverityInfo,
			Title:       "Unstructured review output",
			Description: "The review response could not be parsed. Raw model output:\n\n" + raw,
			Status:      model.FeedbackStatusPending,
		}},
	}
}
