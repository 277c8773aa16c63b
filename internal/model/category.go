package model

// Category is the closed set of classification outcomes (spec §3). A
// value outside this set is an extraction failure, never silently
// accepted (GLOSSARY: "Closed enum").
type Category string

const (
	CategoryRequiredPersonalAction Category = "required_personal_action"
	CategoryTeamAction             Category = "team_action"
	CategoryOptionalAction         Category = "optional_action"
	CategoryJobListing             Category = "job_listing"
	CategoryOptionalEvent          Category = "optional_event"
	CategoryWorkRelevant           Category = "work_relevant"
	CategoryFYI                    Category = "fyi"
	CategoryNewsletter             Category = "newsletter"
	CategorySpamToDelete           Category = "spam_to_delete"
)

// categories is the closed enum in no particular order; used for
// membership checks.
var categories = map[Category]bool{
	CategoryRequiredPersonalAction: true,
	CategoryTeamAction:             true,
	CategoryOptionalAction:         true,
	CategoryJobListing:             true,
	CategoryOptionalEvent:          true,
	CategoryWorkRelevant:           true,
	CategoryFYI:                    true,
	CategoryNewsletter:             true,
	CategorySpamToDelete:           true,
}

// IsValidCategory reports whether c is one of the nine closed values.
func IsValidCategory(c Category) bool {
	return categories[c]
}
