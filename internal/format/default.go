// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package format

import "github.com/pdiddy/dossier/pkg/types"

// DefaultName is the name of the built-in format.
const DefaultName = "scientometrics (default)"

var defaultColumns = []string{
	"Name", "Last Name", "Institution", "Title", "Domain", "Gender",
	"Research Focus", "Expertise", "Research Fields",
	"Other Key Notes", "Relevant Links", "Email", "Website",
}

var defaultSites = []string{"researchgate", "ieee"}

// Default returns the built-in scientometrics format with generated prompts.
func Default() types.Format {
	f := types.Format{
		Name:    DefaultName,
		Columns: append([]string(nil), defaultColumns...),
		Sites:   append([]string(nil), defaultSites...),
	}
	f.Prompts = BuildPrompts(f.Columns)
	return f
}
