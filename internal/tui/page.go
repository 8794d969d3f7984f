package tui

// Page is one of the dashboard's fixed pages.
type Page int

const (
	PageHome Page = iota
	PageAnalysis
	PagePrediction
)

var pages = []Page{PageHome, PageAnalysis, PagePrediction}

func (p Page) String() string {
	switch p {
	case PageHome:
		return "Home"
	case PageAnalysis:
		return "Analysis"
	case PagePrediction:
		return "Prediction"
	default:
		return "Unknown"
	}
}

// Next returns the following page, wrapping around.
func (p Page) Next() Page {
	return pages[(int(p)+1)%len(pages)]
}

// Prev returns the preceding page, wrapping around.
func (p Page) Prev() Page {
	return pages[(int(p)+len(pages)-1)%len(pages)]
}
