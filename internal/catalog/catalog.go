// Package catalog holds the static, hand-authored list of selectable signs.
// Each sign maps to a standalone GLB action file under the asset root.
package catalog

import "path/filepath"

// Sign describes one selectable catalogue entry. The ID doubles as the
// action asset's filename stem.
type Sign struct {
	// ID identifies the sign and names its asset file.
	ID string

	// Label is the display name shown to the user.
	Label string

	// Description is optional helper text for the UI.
	Description string

	// ThumbnailURL optionally points at a preview image.
	ThumbnailURL string
}

// builtin is the static catalogue, defined at build time.
var builtin = []Sign{
	{ID: "Ball", Label: "Ball", Description: "The sign for a ball"},
	{ID: "Hello", Label: "Hello", Description: "A greeting"},
	{ID: "ThankYou", Label: "Thank you", Description: "An expression of gratitude"},
	{ID: "Yes", Label: "Yes", Description: "Affirmation"},
	{ID: "No", Label: "No", Description: "Negation"},
	{ID: "Please", Label: "Please", Description: "A polite request"},
	{ID: "Friend", Label: "Friend", Description: "The sign for a friend"},
	{ID: "Water", Label: "Water", Description: "The sign for water"},
}

// Builtin returns the static sign catalogue. The returned slice is a copy;
// callers may reorder it freely.
//
// Returns:
//   - []Sign: the catalogue entries
func Builtin() []Sign {
	return append([]Sign(nil), builtin...)
}

// Lookup finds a catalogue entry by ID.
//
// Parameters:
//   - id: the sign ID
//
// Returns:
//   - Sign: the matching entry
//   - bool: true if the ID exists in the catalogue
func Lookup(id string) (Sign, bool) {
	for _, sign := range builtin {
		if sign.ID == id {
			return sign, true
		}
	}
	return Sign{}, false
}

// ActionPath derives the action asset path for a sign: the sign's ID with a
// .glb extension under the root's actions directory.
//
// Parameters:
//   - root: the asset root directory
//   - sign: the catalogue entry
//
// Returns:
//   - string: the derived file path
func ActionPath(root string, sign Sign) string {
	return filepath.Join(root, "actions", sign.ID+".glb")
}
