package demolang

import (
	"github.com/teleivo/linewrap/align"
	"github.com/teleivo/linewrap/token"
)

// Schema names the column cells of one assignment row ("name = value"):
// the Alignment Engine lines up each of the three anchors across every row
// of a TabularAlignment group (see [align.Schema]).
func Schema(origin any) []align.Cell {
	toks := origin.([]*token.Format)
	return []align.Cell{
		{Token: toks[0], Flush: align.FlushLeft},
		{Token: toks[1], Flush: align.FlushLeft},
		{Token: toks[2], Flush: align.FlushLeft},
	}
}
