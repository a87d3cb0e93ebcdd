package hubspot

// CRM object type names used in association paths.
const (
	ObjectTypeDeals    = "deals"
	ObjectTypeContacts = "contacts"
	ObjectTypeTasks    = "tasks"
)

// Owner is a HubSpot user who can be assigned work. Only the fields the
// workflow reads are modeled.
type Owner struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	UserID    int64  `json:"userId"`
	Archived  bool   `json:"archived"`
}

// Contact is a CRM contact record.
type Contact struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	Archived   bool              `json:"archived"`
}

// Task is a CRM follow-up task engagement.
type Task struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	Archived   bool              `json:"archived"`
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        any    `json:"value"`
}

type searchFilterGroup struct {
	Filters []searchFilter `json:"filters"`
}

type searchSort struct {
	PropertyName string `json:"propertyName"`
	Direction    string `json:"direction"`
}

type searchRequest struct {
	FilterGroups []searchFilterGroup `json:"filterGroups"`
	Properties   []string            `json:"properties,omitempty"`
	Sorts        []searchSort        `json:"sorts,omitempty"`
	Limit        int                 `json:"limit,omitempty"`
	After        string              `json:"after,omitempty"`
}

type searchResponse[T any] struct {
	Total   int     `json:"total"`
	Results []T     `json:"results"`
	Paging  *Paging `json:"paging,omitempty"`
}
