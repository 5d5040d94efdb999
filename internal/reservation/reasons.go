package reservation

// Reason is one entry of the fixed cancellation reason list the backend
// accepts.
type Reason struct {
	ID    int
	Label string
}

var Reasons = []Reason{
	{ID: 1, Label: "Buyer changed their mind"},
	{ID: 2, Label: "Could not agree on a time or place"},
	{ID: 3, Label: "Buyer did not respond"},
	{ID: 4, Label: "Item is no longer available"},
	{ID: 5, Label: "Other"},
}

// LookupReason finds a reason by id.
func LookupReason(id int) (Reason, bool) {
	for _, r := range Reasons {
		if r.ID == id {
			return r, true
		}
	}
	return Reason{}, false
}
