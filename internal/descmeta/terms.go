package descmeta

import "slices"

// termsForDisplay is the ordered list of terms shown when rendering an object.
var termsForDisplay = []string{
	"part_of", "contributor", "creator", "title", "description", "event_location",
	"production_location", "date_portrayed", "source", "source_reference", "rights_holder",
	"rights_summary", "publisher", "date_created", "release_date", "review_date", "aspect_ratio",
	"frame_rate", "cc", "physical_location", "identifier", "metadata_filename", "notes",
	"originating_department", "date_uploaded", "date_modified", "subject", "language", "rights",
	"resource_type", "tag", "related_url",
}

// nonEditableTerms are displayed but are maintained by the system.
var nonEditableTerms = []string{"part_of", "date_modified", "date_uploaded", "format"}

func TermsForDisplay() []string { return slices.Clone(termsForDisplay) }

func TermsForEditing() []string {
	out := make([]string, 0, len(termsForDisplay))
	for _, t := range termsForDisplay {
		if !slices.Contains(nonEditableTerms, t) {
			out = append(out, t)
		}
	}

	return out
}
