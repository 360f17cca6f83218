package history

import "time"

// Receipt is the single-transaction view.
type Receipt struct {
	Record
	StatusText string `json:"statusText"`
	Title      string `json:"title"`
	When       string `json:"when"`
}

func NewReceipt(r Record) Receipt {
	return Receipt{
		Record:     r,
		StatusText: r.StatusText(),
		Title:      r.Amount + " " + r.Token,
		When:       r.Timestamp.Local().Format("1/2/2006, 3:04:05 PM"),
	}
}

// Item is one row of the history list.
type Item struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Summary  string `json:"summary"`
	Detail   string `json:"detail"`
	Age      string `json:"age"`
	Status   string `json:"status"`
	Badge    string `json:"badge"`
	Provider string `json:"provider,omitempty"`
}

func NewItem(r Record, now time.Time) Item {
	detail := r.FiatAmount
	if r.Provider != "" {
		detail += " • " + r.Provider
	}
	detail += " • " + r.Phone
	status := r.BadgeStatus()
	return Item{
		ID:       r.ID,
		Kind:     r.Kind,
		Summary:  r.Verb() + " " + r.Amount + " " + r.Token,
		Detail:   detail,
		Age:      RelativeTime(r.Timestamp, now),
		Status:   status,
		Badge:    capitalize(status),
		Provider: r.Provider,
	}
}

func NewItems(records []Record, now time.Time) []Item {
	out := make([]Item, 0, len(records))
	for _, r := range records {
		out = append(out, NewItem(r, now))
	}
	return out
}
