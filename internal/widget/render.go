package widget

import (
	"errors"
	"fmt"
	"reco-core/internal/domain/entity"
	"strings"
)

const (
	ValidationMessage = "Please enter a valid User ID"
	EmptyMessage      = "No recommendations found."
	errorIndicator    = "❌ "
)

// View is one rendered state of the widget.
type View struct {
	Text    string
	IsError bool
}

func ErrorView(msg string) View {
	return View{Text: errorIndicator + msg, IsError: true}
}

// ResultView renders the outcome of a request: service errors win over
// any recommendations in the same payload.
func ResultView(resp *Response, err error) View {
	var svc *ServiceError
	switch {
	case errors.As(err, &svc):
		return ErrorView(svc.Message)
	case err != nil:
		return ErrorView("Failed to fetch recommendations: " + err.Error())
	}
	return View{Text: RenderRecommendations(resp.UserID, resp.Recommendations)}
}

func RenderRecommendations(userID string, recs []entity.Recommendation) string {
	if len(recs) == 0 {
		return EmptyMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Recommendations for %s\n", userID)
	for _, r := range recs {
		b.WriteString("\n")
		b.WriteString(RenderBlock(r))
	}
	return b.String()
}

func RenderBlock(r entity.Recommendation) string {
	return fmt.Sprintf("🛍️ %s (%s)\n⭐ Score: %s | Source: %s\n💬 %s\n🔗 Evidence: %s\n",
		r.ProductName, r.ProductID, FormatScore(r.Score), r.SourceEvent, r.Explanation, FormatEvidence(r.Evidence))
}

func FormatScore(score float64) string {
	return fmt.Sprintf("%.4f", score)
}

// FormatEvidence joins evidence with ", ". Absent and empty both render as None.
func FormatEvidence(evidence []string) string {
	if len(evidence) == 0 {
		return "None"
	}
	return strings.Join(evidence, ", ")
}
