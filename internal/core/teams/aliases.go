package teams

// NFLAliases maps alternate spellings and abbreviations to canonical
// team names. Feeds sometimes send city-only or nickname-only labels;
// the reconciler's partial matching covers most of those, but
// abbreviations share no substring with the full name and need an entry.
var NFLAliases = map[string]string{
	"kc": "kansas city chiefs", "kan": "kansas city chiefs",
	"buf": "buffalo bills",
	"ne":  "new england patriots", "nwe": "new england patriots", "pats": "new england patriots",
	"nyj": "new york jets",
	"nyg": "new york giants",
	"mia": "miami dolphins",
	"bal": "baltimore ravens",
	"cin": "cincinnati bengals",
	"cle": "cleveland browns",
	"pit": "pittsburgh steelers",
	"hou": "houston texans",
	"ind": "indianapolis colts",
	"jax": "jacksonville jaguars", "jac": "jacksonville jaguars",
	"ten": "tennessee titans",
	"den": "denver broncos",
	"lv":  "las vegas raiders", "lvr": "las vegas raiders", "oak": "las vegas raiders",
	"lac": "los angeles chargers", "sd": "los angeles chargers",
	"dal": "dallas cowboys",
	"phi": "philadelphia eagles",
	"was": "washington commanders", "wsh": "washington commanders",
	"chi": "chicago bears",
	"det": "detroit lions",
	"gb":  "green bay packers", "gnb": "green bay packers",
	"min": "minnesota vikings",
	"atl": "atlanta falcons",
	"car": "carolina panthers",
	"no":  "new orleans saints", "nor": "new orleans saints",
	"tb":  "tampa bay buccaneers", "tam": "tampa bay buccaneers", "bucs": "tampa bay buccaneers",
	"ari": "arizona cardinals", "arz": "arizona cardinals",
	"lar": "los angeles rams", "la": "los angeles rams",
	"sf":  "san francisco 49ers", "sfo": "san francisco 49ers", "niners": "san francisco 49ers",
	"sea": "seattle seahawks",
}
