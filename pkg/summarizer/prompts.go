package summarizer

import (
	"fmt"
	"strings"

	"github.com/Adda-Baaj/blog-digest/internal/domain"
)

// Profile holds the product wording used by the prompt templates.
type Profile struct {
	Product          string   `mapstructure:"product"`
	CurrentEdition   string   `mapstructure:"current_edition"`
	FutureEditions   []string `mapstructure:"future_editions"`
	ExcludedVersions []string `mapstructure:"excluded_versions"`
	GeneralWordLimit int      `mapstructure:"general_word_limit"`
	FacetWordTarget  int      `mapstructure:"facet_word_target"`
}

// DefaultProfile targets retail World of Warcraft.
func DefaultProfile() Profile {
	return Profile{
		Product:          "World of Warcraft",
		CurrentEdition:   "The War Within",
		FutureEditions:   []string{"Midnight", "The Last Titan"},
		ExcludedVersions: []string{"Classic", "Wrath of the Lich King", "Cataclysm", "Mists of Pandaria", "Season of Discovery", "Season of Mastery"},
		GeneralWordLimit: 100,
		FacetWordTarget:  150,
	}
}

func (p Profile) withDefaults() Profile {
	def := DefaultProfile()
	if strings.TrimSpace(p.Product) == "" {
		p.Product = def.Product
	}
	if strings.TrimSpace(p.CurrentEdition) == "" {
		p.CurrentEdition = def.CurrentEdition
	}
	if p.FutureEditions == nil {
		p.FutureEditions = def.FutureEditions
	}
	if p.ExcludedVersions == nil {
		p.ExcludedVersions = def.ExcludedVersions
	}
	if p.GeneralWordLimit <= 0 {
		p.GeneralWordLimit = def.GeneralWordLimit
	}
	if p.FacetWordTarget <= 0 {
		p.FacetWordTarget = def.FacetWordTarget
	}
	return p
}

func (p Profile) editionScope() string {
	if len(p.FutureEditions) == 0 {
		return p.CurrentEdition
	}
	return fmt.Sprintf("%s and future expansions (%s)", p.CurrentEdition, strings.Join(p.FutureEditions, ", "))
}

const highlightRule = "Always begin with a single <strong>highlight sentence</strong>, followed by a <ul> of 3-5 key points, enclosed by <li> tags, each item starting with an arrow."

// contentTypeRules keeps the content type facets mutually exclusive.
var contentTypeRules = map[domain.ContentType]string{
	domain.ContentMythicKey: "\"M+\" refers only to Mythic+ dungeon content, not raids.",
	domain.ContentRaiding:   "\"Raiding\" refers to raid content and excludes Mythic+.",
	domain.ContentOpenWorld: "\"Open World\" refers to outdoor content (world quests, events, exploration, the trading post), excluding M+ and Raiding.",
	domain.ContentPvP:       "\"PvP\" refers to player-vs-player content (battlegrounds, arenas, world PvP), excluding M+ and Raiding.",
	domain.ContentDelves:    "\"Delves\" refers only to Delves, excluding M+, Raiding and general Open World content.",
}

const classRule = "Classes refers to the specific class mentioned: class changes, tuning, talent changes, tier set changes and bugfixes, not general class information. When prompted with a class name, do not include any Raiding, M+, PvP, Delves or Open World content, regardless of how relevant it may seem."

// BuildPrompt renders the instruction for req.
func BuildPrompt(p Profile, req Request) string {
	p = p.withDefaults()
	if req.Facet == nil {
		return generalPrompt(p, req.Text)
	}
	return facetPrompt(p, *req.Facet, req.Text)
}

func generalPrompt(p Profile, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert summarizer for %s blog posts, focusing on the current version, %s.\n", p.Product, p.editionScope())
	b.WriteString("Your task is to create a concise, clear summary of the provided blog post content. Do not preface your response with any framing text.\n")
	b.WriteString("Focus on the most relevant and important details, avoiding filler or unnecessary information.\n")
	fmt.Fprintf(&b, "Summarize the following %s blog post in strictly under %d words.\n", p.Product, p.GeneralWordLimit)
	fmt.Fprintf(&b, "Focus on content relevant to the current version only. The current expansion is %s.\n", p.CurrentEdition)
	if len(p.ExcludedVersions) > 0 {
		fmt.Fprintf(&b, "Do not include %s or any other non-current versions.\n", strings.Join(p.ExcludedVersions, " or "))
	}
	b.WriteString("Use clean, minimal HTML (not markdown). Line breaks are allowed. Be clear, concise, and readable.\n")
	b.WriteString(highlightRule)
	b.WriteString("\n\n")
	writeArticle(&b, text)
	return b.String()
}

func facetPrompt(p Profile, f domain.Facet, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert summarizer for %s blog posts. Focus exclusively on %s.\n\n", p.Product, p.editionScope())
	b.WriteString("Your task is to generate a concise, topic-specific summary based on the following blog post.\n")
	fmt.Fprintf(&b, "Focus only on content explicitly relevant to the %s: %q.\n\n", f.Kind.Label(), f.Name)

	b.WriteString("Do not include:\n")
	b.WriteString("- General-purpose information already likely covered in the main summary. This includes game wide events.\n")
	b.WriteString("- Background context, unrelated events, or content about other classes or content types.\n")
	if len(p.ExcludedVersions) > 0 {
		fmt.Fprintf(&b, "- Any reference to non-current versions (%s, etc.).\n", strings.Join(p.ExcludedVersions, ", "))
	}
	b.WriteString("- Vague, filler, or promotional language.\n")
	b.WriteString("- Explanatory text, introductions, disclaimers, or the word \"Summary\".\n\n")

	fmt.Fprintf(&b, "If the %s %q is not meaningfully discussed, return exactly:\n%q\n\n", f.Kind.Label(), f.Name, domain.FallbackSummary)

	b.WriteString("Content Type Definitions:\n")
	for _, ct := range domain.ContentTypes {
		fmt.Fprintf(&b, "- %s\n", contentTypeRules[ct])
	}
	fmt.Fprintf(&b, "- %s\n\n", classRule)

	b.WriteString("Summary instructions:\n")
	fmt.Fprintf(&b, "- Aim for ~%d words, but fewer if the relevant content is sparse.\n", p.FacetWordTarget)
	b.WriteString("- Use clean, minimal HTML only. Do not use markdown formatting.\n")
	b.WriteString("- Allow these tags only: <strong>, <em>, <ul>, <li>, <br>.\n")
	b.WriteString("- Return only the raw summary. No headers, greetings, or framing.\n")
	fmt.Fprintf(&b, "- %s\n\n", highlightRule)
	writeArticle(&b, text)
	return b.String()
}

func writeArticle(b *strings.Builder, text string) {
	b.WriteString("\"\"\"\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\"\"\"\n")
}
