package rating

// League is a named rating band.
type League struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Min   int    `json:"min"`
}

var leagues = []League{
	{Key: "beginner", Name: "Beginner", Emoji: "🎯", Min: 0},
	{Key: "bronze", Name: "Bronze", Emoji: "📙", Min: 2000},
	{Key: "silver", Name: "Silver", Emoji: "🥈", Min: 4000},
	{Key: "gold", Name: "Gold", Emoji: "🏅", Min: 6000},
	{Key: "diamond", Name: "Platinum", Emoji: "💎", Min: 8000},
}

// LeagueFor returns the league for a rating. Ratings below zero fall into
// the lowest league.
func LeagueFor(elo int) League {
	out := leagues[0]
	for _, l := range leagues {
		if elo >= l.Min {
			out = l
		}
	}
	return out
}
