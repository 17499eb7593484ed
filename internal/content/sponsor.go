package content

const (
	NamingSponsorLabel = "Naming Sponsor"
	MainSponsorLabel   = "Main Sponsor"
)

// MainSponsors holds the two logo URLs that get featured placement.
type MainSponsors struct {
	NamingURL string
	MainURL   string
}

type FeaturedSponsor struct {
	Sponsor
	Label string `json:"label"`
}

type SponsorBoard struct {
	Main     []FeaturedSponsor `json:"main"`
	Official []Sponsor         `json:"official"`
}

// Split separates featured sponsors from the rest, keeping the incoming order
// within each group.
func (m MainSponsors) Split(all []Sponsor) SponsorBoard {
	board := SponsorBoard{
		Main:     make([]FeaturedSponsor, 0, 2),
		Official: make([]Sponsor, 0, len(all)),
	}
	for _, s := range all {
		if label := m.label(s.LogoURL); label != "" {
			board.Main = append(board.Main, FeaturedSponsor{Sponsor: s, Label: label})
			continue
		}
		board.Official = append(board.Official, s)
	}
	return board
}

func (m MainSponsors) label(url string) string {
	switch {
	case url == "":
		return ""
	case url == m.NamingURL:
		return NamingSponsorLabel
	case url == m.MainURL:
		return MainSponsorLabel
	}
	return ""
}
