// Package layout holds the page shell shared by every web page.
package layout

// FlashMessage is a one-shot notice shown on the next page load
type FlashMessage struct {
	Type    string // "success", "error" or "info"
	Message string
}

// PageData is common data for every page
type PageData struct {
	Title string
	Flash *FlashMessage
}

func pageTitle(title string) string {
	if title == "" {
		return "Team Balancer"
	}
	return title + " | Team Balancer"
}
