package market

import "strings"

// Sector names used in API responses
const (
	SectorFinance        = "Finance"
	SectorTechnology     = "Technology"
	SectorEnergy         = "Energy"
	SectorBasicMaterials = "Basic Materials"
	SectorConsumer       = "Consumer"
	SectorInfrastructure = "Infrastructure"
	SectorIndustrials    = "Industrials"
	SectorOthers         = "Others"
)

// PopularSymbols is the large-cap universe (an LQ45 subset). It backs the
// market summary and the large-cap side of the watchlist sweep.
var PopularSymbols = []string{
	// Finance
	"BBCA", "BBRI", "BMRI", "BBNI", "ARTO", "BRIS",
	// Tech
	"GOTO", "EMTK", "BUKA", "DCII",
	// Energy & Mining
	"ADRO", "PGAS", "PTBA", "ANTM", "TINS", "INCO", "MEDC",
	// Consumer
	"UNVR", "ICBP", "INDF", "AMRT", "MYOR", "KLBF",
	// Infra & Telco
	"TLKM", "ISAT", "EXCL", "JSMR",
	// Auto & Heavy
	"ASII", "UNTR",
}

// SmallCapSymbols is the second-liner universe where hidden gems usually come from
var SmallCapSymbols = []string{
	"CLEO", "MYOH", "WOOD", "MARK", "SIDO",
	"ERAA", "PANI", "DOID", "HRUM", "GJTL",
	"AUTO", "DRMA", "MAPA", "ACES", "ELSA",
}

// knownSectors covers PopularSymbols so the summary can label rows without
// a fundamentals call per symbol
var knownSectors = map[string]string{
	"BBCA": SectorFinance, "BBRI": SectorFinance, "BMRI": SectorFinance,
	"BBNI": SectorFinance, "ARTO": SectorFinance, "BRIS": SectorFinance,
	"GOTO": SectorTechnology, "EMTK": SectorTechnology, "BUKA": SectorTechnology, "DCII": SectorTechnology,
	"ADRO": SectorEnergy, "PGAS": SectorEnergy, "PTBA": SectorEnergy, "MEDC": SectorEnergy,
	"ANTM": SectorBasicMaterials, "TINS": SectorBasicMaterials, "INCO": SectorBasicMaterials,
	"UNVR": SectorConsumer, "ICBP": SectorConsumer, "INDF": SectorConsumer,
	"AMRT": SectorConsumer, "MYOR": SectorConsumer, "KLBF": SectorConsumer,
	"TLKM": SectorInfrastructure, "ISAT": SectorInfrastructure, "EXCL": SectorInfrastructure, "JSMR": SectorInfrastructure,
	"ASII": SectorIndustrials, "UNTR": SectorIndustrials,
}

// SectorOf returns the curated sector for code, or Others
func SectorOf(code string) string {
	if sector, ok := knownSectors[strings.ToUpper(code)]; ok {
		return sector
	}
	return SectorOthers
}

// NormalizeSector maps a provider sector label (GICS-style English names)
// onto the API's sector set
func NormalizeSector(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return SectorOthers
	case strings.Contains(s, "financ"), strings.Contains(s, "bank"):
		return SectorFinance
	case strings.Contains(s, "tech"), strings.Contains(s, "communication"):
		return SectorTechnology
	case strings.Contains(s, "energy"), strings.Contains(s, "oil"), strings.Contains(s, "coal"):
		return SectorEnergy
	case strings.Contains(s, "material"), strings.Contains(s, "mining"):
		return SectorBasicMaterials
	case strings.Contains(s, "consumer"), strings.Contains(s, "health"):
		return SectorConsumer
	case strings.Contains(s, "utilit"), strings.Contains(s, "real estate"), strings.Contains(s, "infra"), strings.Contains(s, "telecom"):
		return SectorInfrastructure
	case strings.Contains(s, "industr"):
		return SectorIndustrials
	default:
		return SectorOthers
	}
}
