package category

import (
	"strings"

	"github.com/claimstack/pricing-service/internal/textnorm"
)

// keywordDict maps a category to its whole-word triggers. Order matters:
// scan order breaks score ties.
var keywordDict = []struct {
	category string
	keywords []string
}{
	{"APM - APPLIANCES (MAJOR)", []string{"refrigerator", "fridge", "freezer", "washer", "dryer", "dishwasher", "stove", "oven", "range"}},
	{"APS - APPLIANCES (SMALL)", []string{"blender", "toaster", "microwave", "kettle", "fryer", "vacuum", "iron", "fan", "heater", "humidifier"}},
	{"ELC - ELECTRONICS A", []string{"laptop", "computer", "tablet", "phone", "smartphone", "monitor", "console", "camera"}},
	{"ELC - ELECTRONICS B", []string{"tv", "television", "speaker", "soundbar", "headphones", "radio", "printer", "router", "dvd"}},
	{"FRN - FURNITURE", []string{"sofa", "couch", "chair", "table", "desk", "dresser", "bed", "mattress", "bookcase", "cabinet", "nightstand", "ottoman"}},
	{"KCW - KITCHEN (STORAGE)", []string{"mixer", "container", "canister", "tupperware", "rack", "organizer"}},
	{"KCW - KITCHEN (COOKWARE)", []string{"pot", "pan", "skillet", "cookware", "bakeware", "knife", "utensil", "dish", "plate", "bowl", "cup", "mug", "silverware", "flatware"}},
	{"LIN - LINENS", []string{"sheet", "sheets", "towel", "towels", "blanket", "comforter", "pillow", "quilt", "duvet", "curtain", "curtains"}},
	{"CLT - CLOTHING", []string{"shirt", "pants", "dress", "jacket", "coat", "sweater", "jeans", "clothes", "clothing", "socks", "underwear"}},
	{"SHO - SHOES", []string{"shoes", "boots", "sneakers", "sandals", "heels"}},
	{"TOY - TOYS", []string{"toy", "toys", "lego", "doll", "puzzle", "game", "games"}},
	{"SPG - SPORTING GOODS", []string{"bike", "bicycle", "treadmill", "weights", "dumbbell", "golf", "tennis", "fishing", "camping", "tent"}},
	{"TLS - TOOLS", []string{"drill", "saw", "hammer", "wrench", "screwdriver", "toolbox", "sander", "tool", "tools"}},
	{"LWN - LAWN AND GARDEN", []string{"mower", "trimmer", "hose", "shovel", "rake", "planter", "grill"}},
	{"DEC - DECOR", []string{"frame", "vase", "mirror", "clock", "figurine", "candle", "wreath", "decoration", "decorations"}},
	{"LGT - LIGHTING", []string{"lamp", "lamps", "chandelier", "sconce", "lantern"}},
	{"BKS - BOOKS AND MEDIA", []string{"book", "books", "cd", "vinyl", "magazine"}},
	{"JWL - JEWELRY", []string{"ring", "necklace", "bracelet", "earrings", "watch", "jewelry"}},
	{"ART - ARTWORK", []string{"painting", "artwork", "sculpture", "print"}},
	{"OFF - OFFICE SUPPLIES", []string{"stapler", "binder", "paper", "folder", "shredder"}},
	{"HBA - HEALTH AND BEAUTY", []string{"shampoo", "lotion", "makeup", "perfume", "cologne", "razor", "hairdryer"}},
	{"CLN - CLEANING SUPPLIES", []string{"detergent", "cleaner", "mop", "broom", "bleach"}},
	{"PET - PET SUPPLIES", []string{"leash", "aquarium", "litter", "kennel", "crate"}},
}

// keywordMatch runs the tier 1 scan: the category with the most
// whole-word hits wins, ties resolve to the first scanned. Returns empty
// when nothing hit.
func keywordMatch(description string) string {
	tokens := textnorm.Tokens(description)
	if len(tokens) == 0 {
		return ""
	}
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[strings.Trim(t, ".,;:!?()[]")] = true
	}

	best := ""
	bestScore := 0
	for _, d := range keywordDict {
		score := 0
		for _, kw := range d.keywords {
			if set[kw] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = d.category, score
		}
	}
	return best
}

// heuristicDefaults are the tier 3 rules: strong substrings that map to a
// category with medium confidence when both upper tiers miss.
var heuristicDefaults = []struct {
	substr   string
	category string
}{
	{"electronic", "ELC - ELECTRONICS B"},
	{"appliance", "APS - APPLIANCES (SMALL)"},
	{"furniture", "FRN - FURNITURE"},
	{"kitchen", "KCW - KITCHEN (COOKWARE)"},
	{"cloth", "CLT - CLOTHING"},
	{"linen", "LIN - LINENS"},
	{"bedding", "LIN - LINENS"},
	{"light", "LGT - LIGHTING"},
	{"sport", "SPG - SPORTING GOODS"},
	{"outdoor", "LWN - LAWN AND GARDEN"},
	{"garden", "LWN - LAWN AND GARDEN"},
	{"office", "OFF - OFFICE SUPPLIES"},
	{"pet", "PET - PET SUPPLIES"},
}

// heuristicMatch runs the tier 3 scan.
func heuristicMatch(description string) string {
	d := strings.ToLower(description)
	for _, h := range heuristicDefaults {
		if strings.Contains(d, h.substr) {
			return h.category
		}
	}
	return ""
}
