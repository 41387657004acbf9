package domain

// Summary slot placeholders shared by the summarizer and the store.
const (
	GeneralKey      = "General"
	FallbackSummary = "Please refer to the general summary."
	SummaryFailed   = "[SUMMARY_FAILED]"
)

// FacetKind tells the summarizer how to scope a facet prompt.
type FacetKind string

const (
	FacetKindClass       FacetKind = "class"
	FacetKindContentType FacetKind = "contentType"
)

// Label is the human wording of the kind used inside prompts.
func (k FacetKind) Label() string {
	if k == FacetKindContentType {
		return "content type"
	}
	return string(k)
}

// Class is a playable class name.
type Class string

const (
	ClassWarrior     Class = "Warrior"
	ClassMage        Class = "Mage"
	ClassRogue       Class = "Rogue"
	ClassPriest      Class = "Priest"
	ClassPaladin     Class = "Paladin"
	ClassHunter      Class = "Hunter"
	ClassWarlock     Class = "Warlock"
	ClassDeathKnight Class = "Death Knight"
	ClassDruid       Class = "Druid"
	ClassMonk        Class = "Monk"
	ClassEvoker      Class = "Evoker"
	ClassDemonHunter Class = "Demon Hunter"
)

// ContentType is a gameplay content category.
type ContentType string

const (
	ContentDelves    ContentType = "Delves"
	ContentRaiding   ContentType = "Raiding"
	ContentMythicKey ContentType = "M+"
	ContentPvP       ContentType = "PvP"
	ContentOpenWorld ContentType = "Open World"
)

// Classes lists every class in display order.
var Classes = []Class{
	ClassWarrior, ClassMage, ClassRogue, ClassPriest, ClassPaladin, ClassHunter,
	ClassWarlock, ClassDeathKnight, ClassDruid, ClassMonk, ClassEvoker, ClassDemonHunter,
}

// ContentTypes lists every content type in display order.
var ContentTypes = []ContentType{
	ContentDelves, ContentRaiding, ContentMythicKey, ContentPvP, ContentOpenWorld,
}

// Facet is a single focused summary target.
type Facet struct {
	Kind FacetKind
	Name string
}

// Key is the summaries map key for the facet.
func (f Facet) Key() string { return f.Name }

// ClassFacet builds the facet for a class.
func ClassFacet(c Class) Facet { return Facet{Kind: FacetKindClass, Name: string(c)} }

// ContentTypeFacet builds the facet for a content type.
func ContentTypeFacet(c ContentType) Facet {
	return Facet{Kind: FacetKindContentType, Name: string(c)}
}

// Facets returns every class facet followed by every content type facet.
func Facets() []Facet {
	out := make([]Facet, 0, len(Classes)+len(ContentTypes))
	for _, c := range Classes {
		out = append(out, ClassFacet(c))
	}
	for _, ct := range ContentTypes {
		out = append(out, ContentTypeFacet(ct))
	}
	return out
}

// FacetKeys returns General followed by every facet key.
func FacetKeys() []string {
	facets := Facets()
	keys := make([]string, 0, len(facets)+1)
	keys = append(keys, GeneralKey)
	for _, f := range facets {
		keys = append(keys, f.Key())
	}
	return keys
}

